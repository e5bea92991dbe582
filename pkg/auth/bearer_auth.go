package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/saturnines/catalog-sync/pkg/errors"
)

const bearerScheme = "Bearer"

// BearerAuth signs marketplace requests with the run's access token.
type BearerAuth struct {
	token string
}

// NewBearerAuth wraps an access token. Surrounding whitespace from the token endpoint is dropped.
func NewBearerAuth(token string) *BearerAuth {
	return &BearerAuth{token: strings.TrimSpace(token)}
}

// ApplyAuth sets Authorization. A blank token means the run was wired without authenticating.
func (b *BearerAuth) ApplyAuth(req *http.Request) error {
	if b.token == "" {
		return errors.WrapError(
			fmt.Errorf("access token is empty"),
			errors.ErrConfiguration,
			"sign marketplace request",
		)
	}
	req.Header.Set("Authorization", bearerScheme+" "+b.token)
	return nil
}

// LogValue keeps the token out of structured logs.
func (b *BearerAuth) LogValue() slog.Value {
	if b.token == "" {
		return slog.StringValue(bearerScheme + " [none]")
	}
	return slog.StringValue(bearerScheme + " [redacted]")
}
