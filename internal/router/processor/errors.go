package processor

import (
	"fmt"

	"github.com/pkg/errors"
)

// InternalError reports a broken processor chain, such as a processor receiving the wrong request type.
type InternalError struct {
	Cause error
}

func (m *InternalError) Error() string {
	return fmt.Sprintf("processor error: %v", m.Cause)
}

func (m *InternalError) Unwrap() error {
	return m.Cause
}

// NewInternalError returns an InternalError with a formatted cause.
func NewInternalError(format string, args ...any) error {
	return &InternalError{Cause: errors.Errorf(format, args...)}
}

// ForwardError reports a non-2xx answer from the forwarding target.
type ForwardError struct {
	URL        string
	StatusCode int
}

func (m *ForwardError) Error() string {
	return fmt.Sprintf("forwarding to %s failed with status %d", m.URL, m.StatusCode)
}
