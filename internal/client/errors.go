package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Callers only ever need to tell these two apart.
var (
	// ErrAuthentication means the credentials were rejected. Retrying is
	// pointless until they change.
	ErrAuthentication = errors.New("authentication failed")
	// ErrConnectivity covers everything else: transport errors, timeouts,
	// redirects, server errors and malformed responses.
	ErrConnectivity = errors.New("cannot connect")

	errNoToken = errors.New("no token returned")
)

// AuthError is returned by Login when the server answers 401 or 403.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("unauthorized (%d)", e.Status)
}

func (e *AuthError) Unwrap() error { return ErrAuthentication }

// RequestError is a connectivity failure for one request.
type RequestError struct {
	Method string
	Path   string
	Status int
	Body   string
	Err    error
}

func (e *RequestError) Error() string {
	op := e.Method + " " + e.Path
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", op, e.Err)
	}
	return fmt.Sprintf("%s -> HTTP %d: %s", op, e.Status, e.Body)
}

func (e *RequestError) Is(target error) bool { return target == ErrConnectivity }

func (e *RequestError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsConnectivityError reports whether err is a connectivity failure.
func IsConnectivityError(err error) bool {
	return errors.Is(err, ErrConnectivity)
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func shapeError(method, path string) error {
	return &RequestError{Method: method, Path: path, Err: errors.New("unexpected response shape")}
}
