package dispatch

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/pkg/errors"
)

// Environment variables populated for an ActionHandler.
const (
	EnvMode       = "WEBHOOK_STUB_MODE"
	EnvActions    = "GITHUB_ACTIONS"
	EnvAction     = "GITHUB_ACTION"
	EnvActor      = "GITHUB_ACTOR"
	EnvEventName  = "GITHUB_EVENT_NAME"
	EnvWorkspace  = "GITHUB_WORKSPACE"
	EnvSHA        = "GITHUB_SHA"
	EnvRef        = "GITHUB_REF"
	EnvRepository = "GITHUB_REPOSITORY"
	EnvToken      = "GITHUB_TOKEN"
	EnvWorkflow   = "GITHUB_WORKFLOW"
	EnvEventPath  = "GITHUB_EVENT_PATH"
)

const (
	fakeActionName   = "Fake CLI Action"
	fakeWorkflowName = "Fake CLI Workflow"
	eventFilePattern = "github-workflow-event-*.json"
)

// ActionHandler consumes a delivery exposed through the process environment and a payload file.
type ActionHandler interface {
	Run(ctx context.Context) error
}

// ActionHandlerFunc adapts a plain function to ActionHandler.
type ActionHandlerFunc func(ctx context.Context) error

// Run calls f.
func (f ActionHandlerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// ActionEnv projects a payload onto the environment of a workflow run.
// Fields missing from the payload yield empty values. GITHUB_EVENT_PATH is not part of the projection.
func ActionEnv(event string, payload any, token, workspace string) map[string]string {
	sha := lookup(payload, "head_commit", "id")
	if sha == "" {
		sha = lookup(payload, "after")
	}
	return map[string]string{
		EnvMode:       string(ActionMode),
		EnvActions:    "true",
		EnvAction:     fakeActionName,
		EnvActor:      lookup(payload, "sender", "login"),
		EnvEventName:  event,
		EnvWorkspace:  workspace,
		EnvSHA:        sha,
		EnvRef:        lookup(payload, "ref"),
		EnvRepository: lookup(payload, "repository", "full_name"),
		EnvToken:      token,
		EnvWorkflow:   fakeWorkflowName,
	}
}

func lookup(v any, path ...string) string {
	for _, key := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return ""
		}
		v = m[key]
	}
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func (r *Receiver) dispatchAction(ctx context.Context, plan *Plan, creds Credentials) error {
	if r.action == nil {
		return errors.New("no action handler configured")
	}

	f, err := os.CreateTemp(r.tempDir, eventFilePattern)
	if err != nil {
		return errors.Wrap(err, "failed to create event file")
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			r.logger.Warn("failed to remove event file", slog.String("path", path), slog.Any("error", rmErr))
		}
	}()

	encErr := json.NewEncoder(f).Encode(plan.Payload)
	if err = f.Close(); encErr != nil || err != nil {
		return errors.Wrap(cmp.Or(encErr, err), "failed to write event file")
	}

	// The environment is only touched once the event file is known to be valid.
	env := ActionEnv(plan.Event, plan.Payload, creds.Token, r.workspace)
	for _, k := range slices.Sorted(maps.Keys(env)) {
		if err = os.Setenv(k, env[k]); err != nil {
			return errors.Wrapf(err, "failed to set %s", k)
		}
	}
	if err = os.Setenv(EnvEventPath, path); err != nil {
		return errors.Wrapf(err, "failed to set %s", EnvEventPath)
	}

	r.logger.Info("running action handler", slog.String("event", plan.Event), slog.String("eventPath", path))
	return r.action.Run(ctx)
}
