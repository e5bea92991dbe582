package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/saturnines/catalog-sync/pkg/errors"
)

// maxErrorBody bounds how much of a failed response ends up in an error message
const maxErrorBody = 512

// HTTPDoer is a minimal interface for HTTP clients
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPClientOption configures an HTTPDoer
type HTTPClientOption func(HTTPDoer) HTTPDoer

// NewHTTPClient returns a client with the given timeout and options applied.
// A zero timeout falls back to 30s; requests are never left without a deadline.
func NewHTTPClient(timeout time.Duration, options ...HTTPClientOption) HTTPDoer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var doer HTTPDoer = &http.Client{Timeout: timeout}
	return ApplyHTTPClientOptions(doer, options...)
}

// ApplyHTTPClientOptions applies multiple options to an HTTPDoer
func ApplyHTTPClientOptions(doer HTTPDoer, options ...HTTPClientOption) HTTPDoer {
	for _, option := range options {
		doer = option(doer)
	}
	return doer
}

// Send executes req and classifies the outcome. A transport failure is wrapped in
// ErrTransport; a non-200 status is returned as *errors.UpstreamError after the body
// has been drained and closed. On success the caller owns resp.Body.
func Send(doer HTTPDoer, req *http.Request, op string) (*http.Response, error) {
	resp, err := doer.Do(req)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrTransport, op)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &errors.UpstreamError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return resp, nil
}

// DecodeJSON decodes a response body into target and closes it
func DecodeJSON(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapError(err, errors.ErrTransport, "failed to read response body")
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapError(fmt.Errorf("failed to unmarshal JSON: %w", err), errors.ErrUpstream, "decode response")
	}

	return nil
}
