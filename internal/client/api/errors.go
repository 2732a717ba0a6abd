package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// TransportError reports that no response was received: the server was
// unreachable, the connection broke, or the request timed out.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport failure: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline or network timeout.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// Temporary reports whether retrying the same request may succeed.
// A request cancelled by its caller is not retry-worthy.
func (e *TransportError) Temporary() bool {
	return !errors.Is(e.Err, context.Canceled)
}

// ApplicationError is a structured rejection returned by the server.
// Message holds the server's "message" field verbatim.
type ApplicationError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("server rejected request (%d): %s", e.StatusCode, e.Message)
}

func (e *ApplicationError) Unwrap() error { return e.Err }

// NotFound reports a 404 rejection.
func (e *ApplicationError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// AuthReason classifies an AuthError.
type AuthReason string

const (
	// ReasonNotAuthenticated: the operation needs a session and there is none.
	ReasonNotAuthenticated AuthReason = "not_authenticated"
	// ReasonUnauthorized: the server rejected the attached credential.
	ReasonUnauthorized AuthReason = "unauthorized"
	// ReasonInvalidCredentials: login was refused for the submitted email/password.
	ReasonInvalidCredentials AuthReason = "invalid_credentials"
	// ReasonRejected: the server refused the request for another reason.
	ReasonRejected AuthReason = "rejected"
	// ReasonTransport: the server could not be reached.
	ReasonTransport AuthReason = "transport"
	// ReasonStorage: the credential could not be persisted locally.
	ReasonStorage AuthReason = "storage"
)

// AuthError reports a failed authentication or an expired session.
// Err, when set, is the underlying TransportError, ApplicationError or
// storage failure, so callers can still errors.As into it.
type AuthError struct {
	Reason  AuthReason
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth %s: %s", e.Reason, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError is bad input detected locally, before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Message returns the text a UI should show for err.
func Message(err error) string {
	var (
		ve *ValidationError
		ae *AuthError
		pe *ApplicationError
		te *TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &ae) && ae.Message != "":
		return ae.Message
	case errors.As(err, &pe):
		return pe.Message
	case errors.As(err, &te):
		if te.Timeout() {
			return "the server did not respond in time, please retry"
		}
		return "cannot reach the server, please retry"
	default:
		return err.Error()
	}
}
