package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMalformedResponse is returned when a response body is not the JSON the
	// endpoint promises.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrNoToken is returned when the authentication endpoint answers 2xx
	// without issuing a token.
	ErrNoToken = errors.New("no token in authentication response")
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// GraphQLError carries the errors array of a GraphQL response.
type GraphQLError struct {
	Messages []string
	Codes    []string
}

func (e *GraphQLError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

func (e *GraphQLError) hasCode(code string) bool {
	for _, c := range e.Codes {
		if c == code {
			return true
		}
	}
	return false
}

func (e *GraphQLError) hasMessage(msg string) bool {
	for _, m := range e.Messages {
		if strings.EqualFold(m, msg) {
			return true
		}
	}
	return false
}

func (e *GraphQLError) unauthenticated() bool {
	return e.hasCode("UNAUTHENTICATED") || e.hasMessage("unauthorized")
}

func (e *GraphQLError) forbidden() bool {
	return e.hasCode("FORBIDDEN") || e.hasMessage("forbidden")
}

// AuthorizationError is returned when the backend rejected the credential of
// an authorized call and no refresh could recover it.
type AuthorizationError struct {
	Err        error // the backend's rejection
	RefreshErr error // why refresh failed, if it was attempted
}

func (e *AuthorizationError) Error() string {
	if e.RefreshErr != nil {
		return fmt.Sprintf("not authorized: %v (refresh: %v)", e.Err, e.RefreshErr)
	}
	return fmt.Sprintf("not authorized: %v", e.Err)
}

func (e *AuthorizationError) Unwrap() []error {
	if e.RefreshErr != nil {
		return []error{e.Err, e.RefreshErr}
	}
	return []error{e.Err}
}

// PermissionError is returned when the backend accepted the credential but
// the account's role may not perform the call. The session stays valid.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %v", e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// NetworkError wraps a transport failure: the request never produced a response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err means the credential was missing,
// expired or rejected. Permission denials are not included; see IsForbidden.
func IsUnauthorized(err error) bool {
	var authErr *AuthorizationError
	if errors.As(err, &authErr) {
		return true
	}
	if IsStatus(err, http.StatusUnauthorized) {
		return true
	}
	var gqlErr *GraphQLError
	if errors.As(err, &gqlErr) {
		return gqlErr.unauthenticated()
	}
	return false
}

// IsForbidden reports whether err means the backend refused the call for
// lack of permission: HTTP 403 or a GraphQL FORBIDDEN error.
func IsForbidden(err error) bool {
	var permErr *PermissionError
	if errors.As(err, &permErr) {
		return true
	}
	if IsStatus(err, http.StatusForbidden) {
		return true
	}
	var gqlErr *GraphQLError
	if errors.As(err, &gqlErr) {
		return gqlErr.forbidden()
	}
	return false
}
