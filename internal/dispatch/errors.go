package dispatch

import "fmt"

// CredentialsError is returned when the supplied GitHub credentials do not form exactly one usable shape.
type CredentialsError struct {
	Reason string
}

func (m *CredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials: %s", m.Reason)
}

// ConflictingInputsError is returned when both an explicit event name and a stub carrying headers are supplied.
type ConflictingInputsError struct {
	Event string
}

func (m *ConflictingInputsError) Error() string {
	return "supply only one of an event name or an event fixture file"
}
