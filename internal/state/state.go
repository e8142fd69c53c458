// Package state wires the configured services shared by every command.
package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/admin-dashboard/internal/config"
	"github.com/Sternrassler/admin-dashboard/pkg/api"
	"github.com/Sternrassler/admin-dashboard/pkg/client"
	"github.com/Sternrassler/admin-dashboard/pkg/logging"
	"github.com/Sternrassler/admin-dashboard/pkg/session"
)

// State holds configuration and the API stack.
type State struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Client  *client.Client
	API     *api.API
	Session *session.Session
	Redis   *redis.Client

	closers []io.Closer
}

// Options tune how State is built.
type Options struct {
	// LogToFile sends logs to Config.LogFile instead of stderr (TUI).
	LogToFile bool

	// Store overrides the token store (tests); defaults to a FileStore.
	Store session.TokenStore
}

// New builds the API stack from cfg. The session is not initialised; call
// Session.Init when a command needs the logged in admin.
func New(cfg *config.Config, opts Options) (*State, error) {
	s := &State{Config: cfg}

	logger, err := s.setupLogging(opts.LogToFile)
	if err != nil {
		return nil, err
	}
	s.Logger = logger

	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		s.Redis = redis.NewClient(redisOpts)
		s.closers = append(s.closers, s.Redis)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			// Cache and shared rate limiting are optional.
			logger.Warn().Err(err).Msg("Redis unavailable - running without cache")
			s.Redis.Close()
			s.Redis = nil
			s.closers = s.closers[:len(s.closers)-1]
		}
	}

	clientCfg := client.DefaultConfig(cfg.APIURL, cfg.UserAgent)
	clientCfg.Redis = s.Redis
	c, err := client.New(clientCfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create api client: %w", err)
	}
	s.Client = c
	s.closers = append(s.closers, c)

	store := opts.Store
	if store == nil {
		store = session.NewFileStore(cfg.TokenFile)
	}

	s.API = api.New(c)
	s.Session = session.New(s.API, store, logger)
	c.SetTokenSource(s.Session)

	return s, nil
}

func (s *State) setupLogging(toFile bool) (zerolog.Logger, error) {
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(s.Config.LogLevel)
	logCfg.Pretty = true

	if toFile && s.Config.LogFile != "" {
		f, err := logging.OpenFile(s.Config.LogFile)
		if err != nil {
			return zerolog.Logger{}, err
		}
		s.closers = append(s.closers, f)
		logCfg.Output = f
		logCfg.Pretty = false
	}

	return logging.Setup(logCfg), nil
}

// RequireLogin restores the persisted session and fails when nobody is
// logged in.
func (s *State) RequireLogin(ctx context.Context) (api.Admin, error) {
	if err := s.Session.Init(ctx); err != nil {
		return api.Admin{}, err
	}
	admin, ok := s.Session.CurrentUser()
	if !ok {
		return api.Admin{}, errors.New("not logged in: run 'dashboard auth login' first")
	}
	return admin, nil
}

// PageSize returns the configured list page size.
func (s *State) PageSize() int {
	return s.Config.PageSize
}

// Close releases clients and the log file.
func (s *State) Close() error {
	if s == nil {
		return nil
	}

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
