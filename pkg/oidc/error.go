package oidc

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slog"
)

type errorType string

const (
	InvalidRequest          errorType = "invalid_request"
	InvalidScope            errorType = "invalid_scope"
	InvalidClient           errorType = "invalid_client"
	InvalidGrant            errorType = "invalid_grant"
	UnauthorizedClient      errorType = "unauthorized_client"
	UnsupportedGrantType    errorType = "unsupported_grant_type"
	UnsupportedResponseType errorType = "unsupported_response_type"
	ServerError             errorType = "server_error"
	InteractionRequired     errorType = "interaction_required"
	LoginRequired           errorType = "login_required"
	ConsentRequired         errorType = "consent_required"
	AccessDenied            errorType = "access_denied"
	InvalidRequestObject    errorType = "invalid_request_object"
	InvalidRequestURI       errorType = "invalid_request_uri"
	InvalidToken            errorType = "invalid_token"
	RequestNotSupported     errorType = "request_not_supported"
	RequestURINotSupported  errorType = "request_uri_not_supported"
	InvalidClientMetadata   errorType = "invalid_client_metadata"
	InvalidRedirectURI      errorType = "invalid_redirect_uri"
	UnsupportedTokenType    errorType = "unsupported_token_type"
)

// Every constructor returns a fresh *Error, so the With methods
// never modify a shared value.
var (
	ErrInvalidRequest = newErrorFunc(InvalidRequest)
	// ErrInvalidRequestRedirectURI is an invalid_request which must never
	// be sent to the redirect_uri, as the redirect_uri itself is not trusted.
	ErrInvalidRequestRedirectURI = func() *Error {
		return ErrInvalidRequest().WithRedirectDisabled()
	}
	ErrInvalidScope            = newErrorFunc(InvalidScope)
	ErrInvalidClient           = newErrorFunc(InvalidClient)
	ErrInvalidGrant            = newErrorFunc(InvalidGrant)
	ErrUnauthorizedClient      = newErrorFunc(UnauthorizedClient)
	ErrUnsupportedGrantType    = newErrorFunc(UnsupportedGrantType)
	ErrUnsupportedResponseType = newErrorFunc(UnsupportedResponseType)
	ErrServerError             = newErrorFunc(ServerError)
	ErrInteractionRequired     = newErrorFunc(InteractionRequired)
	ErrLoginRequired           = newErrorFunc(LoginRequired)
	ErrConsentRequired         = newErrorFunc(ConsentRequired)
	ErrAccessDenied            = newErrorFunc(AccessDenied)
	ErrInvalidRequestObject    = newErrorFunc(InvalidRequestObject)
	ErrInvalidRequestURI       = newErrorFunc(InvalidRequestURI)
	ErrInvalidToken            = newErrorFunc(InvalidToken)
	ErrRequestNotSupported     = newErrorFunc(RequestNotSupported)
	ErrRequestURINotSupported  = newErrorFunc(RequestURINotSupported)
	ErrInvalidClientMetadata   = newErrorFunc(InvalidClientMetadata)
	ErrInvalidRedirectURI      = newErrorFunc(InvalidRedirectURI)
	ErrUnsupportedTokenType    = newErrorFunc(UnsupportedTokenType)
)

func newErrorFunc(typ errorType) func() *Error {
	return func() *Error {
		return &Error{ErrorType: typ}
	}
}

// Error is an OAuth 2.0 error response. It is rendered as JSON by the
// direct endpoints and as query or fragment parameters on a redirect.
type Error struct {
	Parent           error     `json:"-" schema:"-"`
	ErrorType        errorType `json:"error" schema:"error"`
	Description      string    `json:"error_description,omitempty" schema:"error_description,omitempty"`
	State            string    `json:"state,omitempty" schema:"state,omitempty"`
	redirectDisabled bool      `schema:"-"`
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("ErrorType=")
	b.WriteString(string(e.ErrorType))
	if e.Description != "" {
		b.WriteString(" Description=")
		b.WriteString(e.Description)
	}
	if e.Parent != nil {
		b.WriteString(" Parent=")
		b.WriteString(e.Parent.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Parent
}

// Is matches another *Error of the same type. Description and state
// of the target only take part when they are set.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t.ErrorType != e.ErrorType {
		return false
	}
	if t.Description != "" && t.Description != e.Description {
		return false
	}
	return t.State == "" || t.State == e.State
}

func (e *Error) WithParent(err error) *Error {
	e.Parent = err
	return e
}

func (e *Error) WithDescription(desc string, args ...any) *Error {
	e.Description = fmt.Sprintf(desc, args...)
	return e
}

// WithRedirectDisabled marks the error to be returned
// in the response body, even if a redirect_uri is known.
func (e *Error) WithRedirectDisabled() *Error {
	e.redirectDisabled = true
	return e
}

func (e *Error) IsRedirectDisabled() bool {
	return e.redirectDisabled
}

// DefaultToServerError returns the *Error in the chain of err, or
// a server_error with the description wrapping err when there is none.
func DefaultToServerError(err error, description string) *Error {
	var oidcErr *Error
	if errors.As(err, &oidcErr) {
		return oidcErr
	}
	return ErrServerError().WithParent(err).WithDescription("%s", description)
}

// LogLevel is error for server_error and warn for the
// errors caused by the client.
func (e *Error) LogLevel() slog.Level {
	if e.ErrorType == ServerError {
		return slog.LevelError
	}
	return slog.LevelWarn
}

func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("type", string(e.ErrorType))}
	if e.Description != "" {
		attrs = append(attrs, slog.String("description", e.Description))
	}
	if e.State != "" {
		attrs = append(attrs, slog.String("state", e.State))
	}
	if e.redirectDisabled {
		attrs = append(attrs, slog.Bool("redirect_disabled", true))
	}
	if e.Parent != nil {
		attrs = append(attrs, slog.Any("parent", e.Parent))
	}
	return slog.GroupValue(attrs...)
}
