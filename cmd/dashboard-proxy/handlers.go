package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/Sternrassler/admin-dashboard/pkg/api"
	"github.com/Sternrassler/admin-dashboard/pkg/client"
	"github.com/Sternrassler/admin-dashboard/pkg/metrics"
)

const tokenCookie = "token"

var authTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dashboard_proxy_auth_total",
	Help: "Auth passthrough requests by route and outcome",
}, []string{"route", "outcome"})

// authenticator is the part of *api.API the proxy forwards to.
type authenticator interface {
	Login(ctx context.Context, req api.LoginRequest) (api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.AuthResponse, error)
}

type server struct {
	auth   authenticator
	redis  *redis.Client
	secure bool
	logger zerolog.Logger
}

// routes builds the proxy router: health, readiness, metrics and the
// throttled auth endpoints, wrapped in CORS.
func (s *server) routes(origins []string, limit *limiter.Limiter) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.readyHandler).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	auth := r.PathPrefix("/api/auth").Subrouter()
	if limit != nil {
		auth.Use(mhttp.NewMiddleware(limit).Handler)
	}
	auth.HandleFunc("/login", s.loginHandler).Methods(http.MethodPost)
	auth.HandleFunc("/register", s.registerHandler).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// newLimiter throttles auth attempts per client IP. The Redis store is
// shared between proxy replicas; without Redis the count is per process.
func newLimiter(rate limiter.Rate, rdb *redis.Client) (*limiter.Limiter, error) {
	if rdb == nil {
		return limiter.New(memory.NewStore(), rate), nil
	}
	store, err := sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "dashboard:proxy:limiter"})
	if err != nil {
		return nil, fmt.Errorf("create redis limiter store: %w", err)
	}
	return limiter.New(store, rate), nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) loginHandler(w http.ResponseWriter, r *http.Request) {
	s.forward(w, r, "login", http.StatusUnauthorized, "Invalid credentials",
		func(ctx context.Context, c credentials) (api.AuthResponse, error) {
			return s.auth.Login(ctx, api.LoginRequest{Email: c.Email, Password: c.Password})
		})
}

func (s *server) registerHandler(w http.ResponseWriter, r *http.Request) {
	s.forward(w, r, "register", http.StatusBadRequest, "Registration failed",
		func(ctx context.Context, c credentials) (api.AuthResponse, error) {
			return s.auth.Register(ctx, api.RegisterRequest{Username: c.Username, Email: c.Email, Password: c.Password})
		})
}

// forward sends the credentials upstream and turns the access token into
// an httpOnly cookie. Any upstream refusal maps to rejectStatus; transport
// and decoding failures are 500.
func (s *server) forward(w http.ResponseWriter, r *http.Request, route string, rejectStatus int, rejectMsg string,
	call func(context.Context, credentials) (api.AuthResponse, error)) {
	var creds credentials
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&creds); err != nil {
		s.logger.Warn().Err(err).Str("route", route).Msg("Malformed auth request")
		authTotal.WithLabelValues(route, "error").Inc()
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	resp, err := call(ctx, creds)
	if err != nil {
		if rejected(err) {
			authTotal.WithLabelValues(route, "rejected").Inc()
			writeJSON(w, rejectStatus, map[string]string{"error": rejectMsg})
			return
		}
		s.logger.Error().Err(err).Str("route", route).Msg("Auth passthrough failed")
		authTotal.WithLabelValues(route, "error").Inc()
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}

	token := resp.AccessToken()
	if token == "" {
		s.logger.Error().Str("route", route).Msg("Upstream returned no access token")
		authTotal.WithLabelValues(route, "error").Inc()
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
	authTotal.WithLabelValues(route, "success").Inc()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// rejected reports whether upstream answered with a non-2xx status or the
// request was refused before sending it.
func rejected(err error) bool {
	if api.IsValidation(err) {
		return true
	}
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode > 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
