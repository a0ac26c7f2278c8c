package helpers

import (
	"io"
	"log/slog"
)

// NewNoopLogger returns a logger discarding every record. Constructors default to it.
func NewNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
