package schema

import (
	"errors"
	"fmt"
)

var (
	ErrBackendTimeout     = errors.New("backend timeout")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrHandshake          = errors.New("handshake failed")
	ErrConnection         = errors.New("connection failed")
	ErrCatalogBuild       = errors.New("catalog build failed")
	ErrMalformedArguments = errors.New("malformed arguments")
	ErrUnknownTool        = errors.New("unknown tool")
	ErrSessionClosed      = errors.New("session closed")
	ErrProviderNotFound   = errors.New("provider not registered")
)

// ConnectionError reports that an external provider could not be started or
// did not complete its handshake.
type ConnectionError struct {
	Provider string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect provider %q: %v", e.Provider, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// ToolCallError reports a failed call into an external provider.
type ToolCallError struct {
	Provider string
	Tool     string
	Err      error
}

func (e *ToolCallError) Error() string {
	return fmt.Sprintf("call %s/%s: %v", e.Provider, e.Tool, e.Err)
}

func (e *ToolCallError) Unwrap() error { return e.Err }

// HandlerError wraps a failure returned (or panicked) by a tool handler.
type HandlerError struct {
	Tool string
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// BackendError is a classified model backend failure. It unwraps to either
// ErrBackendTimeout or ErrBackendUnavailable.
type BackendError struct {
	Provider string
	Kind     error
	Err      error
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

func (e *BackendError) Unwrap() []error { return []error{e.Kind, e.Err} }
