package stub

import "fmt"

// UnsupportedFormatError is returned when no supported encoding matches the stub.
type UnsupportedFormatError struct {
	Cause error
}

func (m *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported stub format: %v", m.Cause)
}

func (m *UnsupportedFormatError) Unwrap() error {
	return m.Cause
}

// MalformedInputError is returned when the stub matched an encoding but violates its structural rules.
type MalformedInputError struct {
	Format Format
	Reason string
}

func (m *MalformedInputError) Error() string {
	if m.Format == "" {
		return m.Reason
	}
	return fmt.Sprintf("malformed %s stub: %s", m.Format, m.Reason)
}
