package dispatch

import "log/slog"

// WithLogger sets the logger of the Receiver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Receiver) {
		r.logger = logger
	}
}

// WithOpener replaces the function used to open stub files.
func WithOpener(open Opener) Option {
	return func(r *Receiver) {
		r.open = open
	}
}

// WithActionHandler sets the handler invoked in ActionMode.
func WithActionHandler(h ActionHandler) Option {
	return func(r *Receiver) {
		r.action = h
	}
}

// WithRouter sets the router invoked in AppMode.
func WithRouter(router Router) Option {
	return func(r *Receiver) {
		r.router = router
	}
}

// WithSessionOpener sets the session opener used in AppMode.
func WithSessionOpener(o SessionOpener) Option {
	return func(r *Receiver) {
		r.sessions = o
	}
}

// WithWorkspace sets the path exposed as GITHUB_WORKSPACE. It defaults to the working directory.
func WithWorkspace(path string) Option {
	return func(r *Receiver) {
		r.workspace = path
	}
}

// WithTempDir sets the directory the event file is written to. It defaults to os.TempDir.
func WithTempDir(dir string) Option {
	return func(r *Receiver) {
		r.tempDir = dir
	}
}
