package auth

import (
	"net/http"
)

// Handler decorates an outgoing request with credentials
type Handler interface {
	ApplyAuth(req *http.Request) error
}

// HTTPDoer is the minimal client the token exchange needs
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}
