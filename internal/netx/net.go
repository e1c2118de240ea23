// Package netx holds the JSON-over-HTTP round trip used by the CLI client.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxResponseBytes = 1 << 20

// ErrRequestFailed marks failures to reach the server at all, as opposed to
// the server answering with an error status.
var ErrRequestFailed = errors.New("request failed")

// StatusError is returned for any non-2xx response. Body holds at most
// maxResponseBytes of the response.
type StatusError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, bytes.TrimSpace(e.Body))
}

// Request describes one JSON call. In is encoded as the body when non-nil;
// a 2xx body is decoded into Out when non-nil.
type Request struct {
	Method string
	URL    string
	Header http.Header
	In     any
	Out    any
}

// DoJSON performs r with hc.
func DoJSON(ctx context.Context, hc *http.Client, r Request) error {
	var body io.Reader
	if r.In != nil {
		b, err := json.Marshal(r.In)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if r.In != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}
	}

	if r.Out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, r.Out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
