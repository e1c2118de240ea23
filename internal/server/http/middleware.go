package httpx

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/common"
	"github.com/dmitrijs2005/saltgate/internal/server/auth"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the verified claims attached by requireAuth.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(*auth.Claims)
	return c, ok
}

// requireAuth lets the request through only with a valid bearer token.
// A missing token is 401, a malformed or rejected one 403.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		token, err := common.ParseBearer(req.Header.Get("Authorization"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		claims, err := r.tokens.Verify(token)
		if err != nil {
			r.log.Debug(req.Context(), "token rejected", "path", req.URL.Path)
			writeServiceError(w, common.ErrInvalidToken)
			return
		}
		ctx := context.WithValue(req.Context(), claimsContextKey{}, claims)
		next(w, req.WithContext(ctx))
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// audit logs and measures every request under its route pattern.
func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next(sw, req)
		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		elapsed := time.Since(start)

		r.metrics.observeRequest(req.Method, route, sw.status, elapsed)
		r.log.Info(req.Context(), "http request",
			"method", req.Method,
			"route", route,
			"status", sw.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
}

func clientIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	if host == "" {
		host = "unknown"
	}
	return host
}
