package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/saturnines/catalog-sync/pkg/errors"
)

// Token is a bearer token obtained for one run. It is never refreshed.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int
	ObtainedAt  time.Time
}

// Handler returns a request decorator for this token
func (t Token) Handler() *BearerAuth {
	return NewBearerAuth(t.AccessToken)
}

// TokenResponse represents the response from the OAuth2 token endpoint
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// tokenErrorResponse is the RFC 6749 error body
type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ClientCredentials exchanges static credentials for a bearer token
type ClientCredentials struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	GrantType    string

	client HTTPDoer
}

// NewClientCredentials creates a token provider. grantType defaults to client_credentials.
func NewClientCredentials(tokenURL, clientID, clientSecret, grantType string, client HTTPDoer) (*ClientCredentials, error) {
	if tokenURL == "" {
		return nil, errors.WrapError(fmt.Errorf("token URL is required for OAuth2"), errors.ErrConfiguration, "create token provider")
	}
	if clientID == "" {
		return nil, errors.WrapError(fmt.Errorf("client ID is required for OAuth2"), errors.ErrConfiguration, "create token provider")
	}
	if clientSecret == "" {
		return nil, errors.WrapError(fmt.Errorf("client secret is required for OAuth2"), errors.ErrConfiguration, "create token provider")
	}
	if grantType == "" {
		grantType = "client_credentials"
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &ClientCredentials{
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		GrantType:    grantType,
		client:       client,
	}, nil
}

// Acquire performs the token exchange. Any failure is an ErrAuthentication.
func (c *ClientCredentials) Acquire(ctx context.Context) (Token, error) {
	data := url.Values{}
	data.Set("client_id", c.ClientID)
	data.Set("client_secret", c.ClientSecret)
	data.Set("grant_type", c.GrantType)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return Token{}, errors.WrapError(err, errors.ErrAuthentication, "create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Token{}, errors.WrapError(err, errors.ErrAuthentication, "token request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, errors.WrapError(err, errors.ErrAuthentication, "read token response")
	}

	if resp.StatusCode != http.StatusOK {
		return Token{}, errors.WrapError(
			fmt.Errorf("token request returned status %d: %s", resp.StatusCode, upstreamReason(body)),
			errors.ErrAuthentication,
			"token exchange rejected",
		)
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return Token{}, errors.WrapError(err, errors.ErrAuthentication, "decode token response")
	}
	if tokenResp.AccessToken == "" {
		return Token{}, errors.WrapError(
			fmt.Errorf("access_token missing from token response"),
			errors.ErrAuthentication,
			"token exchange",
		)
	}

	return Token{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
		ExpiresIn:   tokenResp.ExpiresIn,
		ObtainedAt:  time.Now(),
	}, nil
}

// upstreamReason extracts the error code from a token error body, or falls back to the raw text
func upstreamReason(body []byte) string {
	var e tokenErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		if e.ErrorDescription != "" {
			return e.Error + " (" + e.ErrorDescription + ")"
		}
		return e.Error
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "unknown error"
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

// String returns a string representation of this auth method
func (c *ClientCredentials) String() string {
	return fmt.Sprintf("ClientCredentials(client_id: %s, url: %s)", c.ClientID, c.TokenURL)
}
