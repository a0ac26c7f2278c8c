package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/isometry/gh-webhook-stub/internal/delivery"
	"github.com/isometry/gh-webhook-stub/internal/dispatch"
	"github.com/isometry/gh-webhook-stub/internal/helpers"
	"github.com/pkg/errors"
)

// ActionOption defines a function type used to configure an ActionRunner.
type ActionOption func(*ActionRunner)

// ActionRunner is the in-process action handler: it rebuilds the delivery from the workflow
// environment (GITHUB_EVENT_NAME and the GITHUB_EVENT_PATH payload file) and routes it.
type ActionRunner struct {
	logger   *slog.Logger
	router   dispatch.Router
	sessions dispatch.SessionOpener
}

// NewActionRunner returns an ActionRunner routing to router.
func NewActionRunner(router dispatch.Router, opts ...ActionOption) *ActionRunner {
	_inst := &ActionRunner{router: router}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("component", "action-runner")
	return _inst
}

// Run implements dispatch.ActionHandler.
func (a *ActionRunner) Run(ctx context.Context) error {
	event := os.Getenv(dispatch.EnvEventName)
	if event == "" {
		return errors.Errorf("%s is not set", dispatch.EnvEventName)
	}
	payload, err := readEventFile(os.Getenv(dispatch.EnvEventPath))
	if err != nil {
		return err
	}

	if a.sessions != nil {
		if token := os.Getenv(dispatch.EnvToken); token != "" {
			session, err := a.sessions.OpenSession(ctx, dispatch.Credentials{Token: token})
			if err != nil {
				return errors.Wrap(err, "failed to open token session")
			}
			defer func() {
				if closeErr := session.Close(); closeErr != nil {
					a.logger.Warn("failed to close token session", slog.Any("error", closeErr))
				}
			}()
			ctx = dispatch.WithSession(ctx, session)
		} else {
			a.logger.Debug("no token available. routing without a session")
		}
	}

	a.logger.Info("running action", slog.String("event", event))
	return a.router.Route(ctx, delivery.NewRequest(delivery.Synthesize(event), payload))
}

func readEventFile(path string) (any, error) {
	if path == "" {
		return nil, errors.Errorf("%s is not set", dispatch.EnvEventPath)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open event payload")
	}
	defer func() { _ = f.Close() }()

	var payload any
	if err = json.NewDecoder(f).Decode(&payload); err != nil {
		return nil, errors.Wrapf(err, "failed to decode event payload %s", path)
	}
	return payload, nil
}
