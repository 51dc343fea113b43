package auth

import (
	"strings"

	"github.com/google/uuid"
)

// ClientIDHeader carries the per-process client identifier on every request.
const ClientIDHeader = "x-runtime-guid"

const clientIDPrefix = "dws-"

// LoginPayload matches the JSON body required by POST /login/sessions
type LoginPayload struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	SetCookie bool   `json:"setCookie"`
}

// NewLoginPayload builds the session request. Cookies are never requested;
// the bearer token is the only credential the client keeps.
func NewLoginPayload(username, password string) LoginPayload {
	return LoginPayload{
		Username:  username,
		Password:  password,
		SetCookie: false,
	}
}

// NewClientID generates the identifier sent in the x-runtime-guid header.
func NewClientID() string {
	return clientIDPrefix + uuid.NewString()
}

// EnsureClientID keeps an existing identifier and generates one otherwise.
func EnsureClientID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return NewClientID()
}

// BearerHeader formats the Authorization header value.
func BearerHeader(token string) string {
	return "Bearer " + token
}
