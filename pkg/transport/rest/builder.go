// pkg/transport/rest/builder.go
package rest

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/saturnines/catalog-sync/pkg/auth"
)

// Builder builds authenticated GET requests against one API root.
type Builder struct {
	BaseURL     string
	Headers     map[string]string
	AuthHandler auth.Handler
}

// NewBuilder constructs a Builder.
func NewBuilder(baseURL string, headers map[string]string, authHandler auth.Handler) *Builder {
	return &Builder{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Headers:     headers,
		AuthHandler: authHandler,
	}
}

// Build creates a GET request for the path segments under BaseURL.
// Each segment is path-escaped, so ids containing '/' or spaces stay one segment.
func (b *Builder) Build(ctx context.Context, query url.Values, segments ...string) (*http.Request, error) {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}

	target := b.BaseURL
	if len(escaped) > 0 {
		target += "/" + strings.Join(escaped, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	for k, v := range b.Headers {
		req.Header.Set(k, v)
	}

	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	if b.AuthHandler != nil {
		if err := b.AuthHandler.ApplyAuth(req); err != nil {
			return nil, err
		}
	}

	return req, nil
}
