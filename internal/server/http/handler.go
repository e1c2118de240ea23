package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/common"
)

const (
	maxBodyBytes       = 1 << 20
	healthCheckTimeout = 2 * time.Second
)

type getSaltRequest struct {
	Username string `json:"username"`
}

type getSaltResponse struct {
	Success   bool   `json:"success"`
	Salt      string `json:"salt"`
	IsNewUser bool   `json:"isNewUser"`
}

type registerRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	ClientHash string `json:"clientHash"`
}

type registerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type loginRequest struct {
	Username   string `json:"username"`
	ClientHash string `json:"clientHash"`
	Nonce      string `json:"nonce"`
}

type userView struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	IssuedAt  *time.Time `json:"issuedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type loginResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Token   string   `json:"token"`
	User    userView `json:"user"`
}

type profileResponse struct {
	Success bool     `json:"success"`
	User    userView `json:"user"`
}

type healthResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func decodeBody(w http.ResponseWriter, req *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", common.ErrorValidation)
	}
	return nil
}

func (r *Router) handleGetSalt(w http.ResponseWriter, req *http.Request) {
	var payload getSaltRequest
	if err := decodeBody(w, req, &payload); err != nil {
		writeServiceError(w, err)
		return
	}

	salt, isNew, err := r.users.GetSalt(req.Context(), payload.Username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, getSaltResponse{Success: true, Salt: salt, IsNewUser: isNew})
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	var payload registerRequest
	if err := decodeBody(w, req, &payload); err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := r.users.Register(req.Context(), payload.Username, payload.Email, payload.ClientHash)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		Success: true,
		Message: "user registered",
		UserID:  user.ID,
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var payload loginRequest
	if err := decodeBody(w, req, &payload); err != nil {
		writeServiceError(w, err)
		return
	}

	if r.limiter != nil {
		decision := r.limiter.Allow(req.Context(), "login:"+clientIP(req)+":"+payload.Username)
		if !decision.Allowed {
			r.metrics.observeRateLimit("/api/login")
			r.metrics.observeLogin("rate_limited")
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(decision.RetryAfter)))
			writeServiceError(w, common.ErrRateLimited)
			return
		}
	}

	res, err := r.users.Login(req.Context(), payload.Username, payload.ClientHash, payload.Nonce)
	if err != nil {
		r.metrics.observeLogin(loginOutcome(err))
		writeServiceError(w, err)
		return
	}

	r.metrics.observeLogin("success")
	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Message: "login successful",
		Token:   res.Token,
		User:    userView{ID: res.User.ID, Username: res.User.UserName},
	})
}

func (r *Router) handleProfile(w http.ResponseWriter, req *http.Request) {
	claims, ok := ClaimsFromContext(req.Context())
	if !ok {
		writeServiceError(w, common.ErrMissingToken)
		return
	}

	iat, exp := claims.IssuedAtTime().UTC(), claims.ExpiresAtTime().UTC()
	writeJSON(w, http.StatusOK, profileResponse{
		Success: true,
		User: userView{
			ID:        claims.UserID,
			Username:  claims.UserName,
			IssuedAt:  &iat,
			ExpiresAt: &exp,
		},
	})
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
	defer cancel()

	if err := r.dbHealth(ctx); err != nil {
		r.log.Warn(req.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Success: false, Status: "unavailable", Message: "store unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Success: true, Status: "ok"})
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, common.ErrorValidation):
		return "invalid_request"
	default:
		return "error"
	}
}

func retryAfterSeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}
