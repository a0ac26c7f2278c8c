package router

import (
	"log/slog"

	"github.com/isometry/gh-webhook-stub/internal/dispatch"
	"github.com/isometry/gh-webhook-stub/internal/router/processor"
)

// WithLogger sets the logger of the Mux.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mux) {
		m.logger = logger
	}
}

// WithPreProcessors appends processors run after intake and before the event processors.
func WithPreProcessors(processors ...processor.Processor) Option {
	return func(m *Mux) {
		m.pre = append(m.pre, processors...)
	}
}

// WithPostProcessors appends processors run after the event processors.
func WithPostProcessors(processors ...processor.Processor) Option {
	return func(m *Mux) {
		m.post = append(m.post, processors...)
	}
}

// WithActionLogger sets the logger of the ActionRunner.
func WithActionLogger(logger *slog.Logger) ActionOption {
	return func(a *ActionRunner) {
		a.logger = logger
	}
}

// WithActionSessions makes the ActionRunner open a token session from GITHUB_TOKEN for every run.
func WithActionSessions(sessions dispatch.SessionOpener) ActionOption {
	return func(a *ActionRunner) {
		a.sessions = sessions
	}
}
