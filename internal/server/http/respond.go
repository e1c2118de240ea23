package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/saltgate/internal/common"
)

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends a failure body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Success: false, Message: msg})
}

// writeServiceError is the single place service errors become HTTP
// responses. Internal causes never reach the body.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	writeError(w, status, messageFor(status, err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrInvalidCredentials), errors.Is(err, common.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusForbidden
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(status int, err error) string {
	switch status {
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusConflict:
		return "user already exists"
	case http.StatusUnauthorized:
		if errors.Is(err, common.ErrMissingToken) {
			return "missing token"
		}
		return "invalid credentials"
	case http.StatusForbidden:
		return "invalid token"
	case http.StatusTooManyRequests:
		return "too many requests"
	default:
		return "internal server error"
	}
}
