package rest

import (
	"net/http"

	"github.com/CameronXie/user-session-api/internal/api/rest/handlers"
	"github.com/CameronXie/user-session-api/internal/api/rest/middlewares"
	"github.com/CameronXie/user-session-api/internal/metrics"
)

const (
	signInRoute  = "/api/v1/user/sign_in"
	signOutRoute = "/api/v1/user/sign_out"
	meRoute      = "/api/v1/user/me"
)

type RouterConfig struct {
	SessionsHandler          *handlers.SessionsHandler
	AuthenticationMiddleware middlewares.Middleware
	Metrics                  *metrics.Metrics
}

// NewMuxWithHandlers initializes a new HTTP mux with routes defined by the given RouterConfig.
// Sign-in is public; sign-out and me require a bearer token.
func NewMuxWithHandlers(cfg *RouterConfig) *http.ServeMux {
	router := http.NewServeMux()
	auth := cfg.AuthenticationMiddleware

	router.Handle("GET /health", http.HandlerFunc(handleHealthCheck))
	router.Handle("GET /metrics", cfg.Metrics.Handler())

	router.Handle("POST "+signInRoute, cfg.Metrics.Instrument(
		signInRoute,
		http.HandlerFunc(cfg.SessionsHandler.SignIn),
	))
	router.Handle("DELETE "+signOutRoute, cfg.Metrics.Instrument(
		signOutRoute,
		auth.Handle(http.HandlerFunc(cfg.SessionsHandler.SignOut)),
	))
	router.Handle("GET "+meRoute, cfg.Metrics.Instrument(
		meRoute,
		auth.Handle(http.HandlerFunc(cfg.SessionsHandler.Me)),
	))

	return router
}

// handleHealthCheck returns a basic health status.
func handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
