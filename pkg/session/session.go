// Package session holds the authenticated admin: the access token used by
// every API call, the admin profile, and their persistence between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/admin-dashboard/pkg/api"
	"github.com/Sternrassler/admin-dashboard/pkg/client"
)

// ErrSuperseded is returned by Login and Register when a logout or another
// login happened while the request was in flight. Its result is dropped.
var ErrSuperseded = errors.New("authentication superseded")

// Authenticator is the part of the API the session talks to.
type Authenticator interface {
	Profile(ctx context.Context) (api.Admin, error)
	Login(ctx context.Context, req api.LoginRequest) (api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.AuthResponse, error)
}

// Session is the authentication state shared by every API call.
// It implements client.TokenSource.
type Session struct {
	auth   Authenticator
	store  TokenStore
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	token string
	user  *api.Admin
	// gen changes on every login, register and logout so that a slow
	// authentication cannot overwrite a later logout.
	gen uint64
}

var _ client.TokenSource = (*Session)(nil)

// New creates a session. Call Init to restore a persisted token.
func New(auth Authenticator, store TokenStore, logger zerolog.Logger) *Session {
	return &Session{
		auth:   auth,
		store:  store,
		logger: logger.With().Str("component", "session").Logger(),
		now:    time.Now,
	}
}

// Token implements client.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CurrentUser returns the logged in admin.
func (s *Session) CurrentUser() (api.Admin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return api.Admin{}, false
	}
	return *s.user, true
}

// Authenticated reports whether a profile is loaded.
func (s *Session) Authenticated() bool {
	_, ok := s.CurrentUser()
	return ok
}

// Init restores the persisted token and loads the profile it belongs to.
//
// No token, an expired token and a token the server rejects all leave the
// session logged out without error (the latter two also clear the store).
// Other failures keep the token so a later Init can retry.
func (s *Session) Init(ctx context.Context) error {
	token, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		s.logger.Debug().Msg("No persisted token")
		return nil
	}

	if tokenExpired(token, s.now()) {
		s.logger.Info().Msg("Persisted token expired - clearing")
		s.Logout()
		return nil
	}

	s.mu.Lock()
	s.token = token
	gen := s.gen
	s.mu.Unlock()

	admin, err := s.auth.Profile(ctx)
	if errors.Is(err, client.ErrUnauthorized) {
		s.logger.Info().Msg("Persisted token rejected - clearing")
		s.Logout()
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil
	}
	s.user = &admin
	s.logger.Info().Str("admin_id", admin.ID).Msg("Session restored")
	return nil
}

// Login authenticates with email and password. On success the token is
// persisted and the profile set; on failure nothing changes and the error
// can be inspected with Kind.
func (s *Session) Login(ctx context.Context, email, password string) error {
	gen := s.begin()
	resp, err := s.auth.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		loginsTotal.WithLabelValues("login", Kind(err).String()).Inc()
		s.logger.Debug().Err(err).Msg("Login failed")
		return err
	}
	if err := s.establish(gen, resp); err != nil {
		return err
	}
	loginsTotal.WithLabelValues("login", "ok").Inc()
	return nil
}

// Register creates an account and logs into it. Result semantics match Login.
func (s *Session) Register(ctx context.Context, username, email, password string) error {
	gen := s.begin()
	resp, err := s.auth.Register(ctx, api.RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		loginsTotal.WithLabelValues("register", Kind(err).String()).Inc()
		s.logger.Debug().Err(err).Msg("Register failed")
		return err
	}
	if err := s.establish(gen, resp); err != nil {
		return err
	}
	loginsTotal.WithLabelValues("register", "ok").Inc()
	return nil
}

// Logout forgets the token and the profile. It never talks to the server.
func (s *Session) Logout() {
	s.mu.Lock()
	s.gen++
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear persisted token")
	}
}

func (s *Session) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

func (s *Session) establish(gen uint64, resp api.AuthResponse) error {
	token := resp.AccessToken()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return ErrSuperseded
	}
	if err := s.store.Save(token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	admin := resp.Admin
	s.token = token
	s.user = &admin

	s.logger.Info().Str("admin_id", admin.ID).Msg("Authenticated")
	return nil
}
