package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/ksfoundation/oneshot/internal/schema"
)

// classifyError turns a client error into a *schema.BackendError whose Kind
// is ErrBackendTimeout or ErrBackendUnavailable.
func classifyError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var be *schema.BackendError
	if errors.As(err, &be) {
		return err
	}

	kind := schema.ErrBackendUnavailable
	lower := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = schema.ErrBackendTimeout
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		kind = schema.ErrBackendTimeout
	}
	return &schema.BackendError{Provider: provider, Kind: kind, Err: err}
}
