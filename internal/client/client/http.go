package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/common"
	"github.com/dmitrijs2005/saltgate/internal/netx"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
	// RetryAfter is set from the Retry-After header on 429 answers.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusBadRequest:
		return ErrBadRequest
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case e.StatusCode == http.StatusConflict:
		return ErrAlreadyExists
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode == http.StatusServiceUnavailable:
		return ErrUnavailable
	default:
		return ErrServer
	}
}

// HTTPClient talks to the saltgate HTTP API rooted at a base URL.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
}

type HTTPClientOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) HTTPClientOption {
	return func(c *HTTPClient) { c.hc = hc }
}

func WithTimeout(d time.Duration) HTTPClientOption {
	return func(c *HTTPClient) { c.hc.Timeout = d }
}

func NewHTTPClient(baseURL string, opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type saltResponse struct {
	envelope
	SaltResult
}

type registerResponse struct {
	envelope
	UserID string `json:"userId"`
}

type loginResponse struct {
	envelope
	LoginResult
}

type profileResponse struct {
	envelope
	User User `json:"user"`
}

func (c *HTTPClient) GetSalt(ctx context.Context, username string) (*SaltResult, error) {
	var out saltResponse
	err := c.do(ctx, http.MethodPost, "/api/get-salt", "", map[string]string{"username": username}, &out)
	if err != nil {
		return nil, err
	}
	return &out.SaltResult, nil
}

func (c *HTTPClient) Register(ctx context.Context, username, email, clientHash string) (string, error) {
	in := map[string]string{"username": username, "clientHash": clientHash}
	if email != "" {
		in["email"] = email
	}
	var out registerResponse
	if err := c.do(ctx, http.MethodPost, "/api/register", "", in, &out); err != nil {
		return "", err
	}
	return out.UserID, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, clientHash, nonce string) (*LoginResult, error) {
	in := map[string]string{"username": username, "clientHash": clientHash, "nonce": nonce}
	var out loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", "", in, &out); err != nil {
		return nil, err
	}
	return &out.LoginResult, nil
}

func (c *HTTPClient) Profile(ctx context.Context, token string) (*User, error) {
	var out profileResponse
	if err := c.do(ctx, http.MethodGet, "/api/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, in, out any) error {
	req := netx.Request{Method: method, URL: c.baseURL + path, In: in, Out: out}
	if token != "" {
		req.Header = http.Header{}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	err := netx.DoJSON(ctx, c.hc, req)
	if err == nil {
		return nil
	}

	var se *netx.StatusError
	if errors.As(err, &se) {
		return toAPIError(se)
	}
	if errors.Is(err, netx.ErrRequestFailed) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

func toAPIError(se *netx.StatusError) *APIError {
	apiErr := &APIError{StatusCode: se.StatusCode}

	var body envelope
	if json.Unmarshal(se.Body, &body) == nil {
		apiErr.Message = body.Message
	}
	if se.StatusCode == http.StatusTooManyRequests {
		if s, err := strconv.Atoi(se.Header.Get("Retry-After")); err == nil && s > 0 {
			apiErr.RetryAfter = time.Duration(s) * time.Second
		}
	}
	return apiErr
}
