// Package dispatch turns a stub file and a set of credentials into a single synthetic delivery,
// handed either to an action handler or to a webhook router.
package dispatch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/isometry/gh-webhook-stub/internal/helpers"
	"github.com/isometry/gh-webhook-stub/internal/stub"
	"github.com/pkg/errors"
)

// Options describes one receive invocation.
type Options struct {
	// Event is the explicit event name. It must be empty when the stub carries headers.
	Event string
	// PayloadPath is the stub file to read.
	PayloadPath string
	// Format restricts probing to one stub encoding. Empty means auto-detection.
	Format stub.Format
	// Credentials select the dispatch mode.
	Credentials Credentials
}

// Opener opens a stub file for reading.
type Opener func(path string) (io.ReadSeekCloser, error)

// Receiver resolves and dispatches stub deliveries.
type Receiver struct {
	logger    *slog.Logger
	open      Opener
	action    ActionHandler
	router    Router
	sessions  SessionOpener
	workspace string
	tempDir   string
}

// Option configures a Receiver.
type Option func(*Receiver)

// NewReceiver returns a Receiver configured with opts.
func NewReceiver(opts ...Option) (*Receiver, error) {
	_inst := new(Receiver)
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	if _inst.open == nil {
		_inst.open = openFile
	}
	if _inst.workspace == "" {
		wd, err := filepath.Abs(".")
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve workspace")
		}
		_inst.workspace = wd
	}
	return _inst, nil
}

// Receive validates the credentials, resolves the stub into a delivery and dispatches it.
// Credentials are checked before the stub is opened; nothing is dispatched unless every check passes.
func (r *Receiver) Receive(ctx context.Context, o Options) error {
	if err := o.Credentials.Validate(); err != nil {
		return err
	}
	logger := r.logger.With(slog.Any("credentials", o.Credentials))

	plan, err := r.Load(o.Event, o.PayloadPath, o.Format)
	if err != nil {
		return err
	}
	plan.Mode = o.Credentials.Mode()
	logger.Debug("resolved delivery",
		slog.String("mode", string(plan.Mode)), slog.String("event", plan.Event), slog.Int("headers", len(plan.Headers)))

	switch plan.Mode {
	case ActionMode:
		return r.dispatchAction(ctx, plan, o.Credentials)
	case AppMode:
		return r.dispatchApp(ctx, plan, o.Credentials)
	default:
		return errors.Errorf("unsupported mode %q", plan.Mode)
	}
}

// Load reads the stub at path and resolves it against event. It never dispatches.
func (r *Receiver) Load(event, path string, format stub.Format) (*Plan, error) {
	if path == "" {
		return nil, errors.New("missing payload path")
	}
	f, err := r.open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer func() { _ = f.Close() }()

	s, err := stub.ParseFormat(f, format)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("parsed stub", slog.String("path", path), slog.String("format", string(s.Format)))
	return Resolve(event, s)
}

func openFile(path string) (io.ReadSeekCloser, error) {
	return os.Open(filepath.Clean(path))
}
