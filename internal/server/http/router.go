// Package httpx is the HTTP boundary: routing, JSON bodies, the bearer
// gate, login rate limiting and metrics.
package httpx

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/saltgate/internal/logging"
	"github.com/dmitrijs2005/saltgate/internal/server/auth"
	"github.com/dmitrijs2005/saltgate/internal/server/models"
	"github.com/dmitrijs2005/saltgate/internal/server/services"
	"github.com/julienschmidt/httprouter"
)

// UserService is what the handlers need from services.UserService.
type UserService interface {
	GetSalt(ctx context.Context, userName string) (string, bool, error)
	Register(ctx context.Context, userName, email, clientHash string) (*models.User, error)
	Login(ctx context.Context, userName, clientHash, nonce string) (*services.LoginResult, error)
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Router wires HTTP endpoints to services.
type Router struct {
	router   *httprouter.Router
	users    UserService
	tokens   TokenVerifier
	limiter  RateLimiter
	metrics  *Metrics
	log      logging.Logger
	dbHealth func(context.Context) error
}

type RouterOption func(*Router)

func WithRateLimiter(l RateLimiter) RouterOption {
	return func(r *Router) { r.limiter = l }
}

func WithMetrics(m *Metrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

func WithLogger(l logging.Logger) RouterOption {
	return func(r *Router) { r.log = l }
}

// WithHealthCheck makes /healthz report 503 while check fails.
func WithHealthCheck(check func(context.Context) error) RouterOption {
	return func(r *Router) { r.dbHealth = check }
}

func NewRouter(users UserService, tokens TokenVerifier, opts ...RouterOption) *Router {
	r := &Router{
		router:   httprouter.New(),
		users:    users,
		tokens:   tokens,
		log:      logging.Nop{},
		dbHealth: func(context.Context) error { return nil },
	}
	for _, o := range opts {
		o(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics()
	}
	r.register()
	return r
}

// ServeHTTP delegates to the underlying httprouter.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.handle(http.MethodPost, "/api/get-salt", r.handleGetSalt)
	r.handle(http.MethodPost, "/api/register", r.handleRegister)
	r.handle(http.MethodPost, "/api/login", r.handleLogin)
	r.handle(http.MethodGet, "/api/profile", r.requireAuth(r.handleProfile))
	r.handle(http.MethodGet, "/healthz", r.handleHealthz)
	r.router.Handler(http.MethodGet, "/metrics", r.metrics.Handler())

	r.router.NotFound = r.audit("unmatched", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.router.MethodNotAllowed = r.audit("unmatched", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

func (r *Router) handle(method, path string, h http.HandlerFunc) {
	r.router.HandlerFunc(method, path, r.audit(path, h))
}
