package router_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/isometry/gh-webhook-stub/internal/delivery"
	"github.com/isometry/gh-webhook-stub/internal/dispatch"
	"github.com/isometry/gh-webhook-stub/internal/router"
	"github.com/isometry/gh-webhook-stub/internal/router/processor"
	"github.com/isometry/gh-webhook-stub/internal/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureRouter struct {
	req     *delivery.Request
	session dispatch.Session
}

func (c *captureRouter) Route(ctx context.Context, req *delivery.Request) error {
	c.req = req
	c.session, _ = dispatch.SessionFromContext(ctx)
	return nil
}

type fakeSession struct{ closed bool }

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

type fakeOpener struct {
	creds   dispatch.Credentials
	session *fakeSession
	err     error
}

func (f *fakeOpener) OpenSession(_ context.Context, creds dispatch.Credentials) (dispatch.Session, error) {
	f.creds = creds
	if f.err != nil {
		return nil, f.err
	}
	f.session = new(fakeSession)
	return f.session, nil
}

func writeEvent(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestActionRunner_Run(t *testing.T) {
	t.Setenv(dispatch.EnvEventName, "pull_request")
	t.Setenv(dispatch.EnvEventPath, writeEvent(t, `{"action":"opened","number":7}`))
	t.Setenv(dispatch.EnvToken, "")

	t.Run("without_sessions", func(t *testing.T) {
		rec := new(captureRouter)
		require.NoError(t, router.NewActionRunner(rec).Run(context.Background()))
		require.NotNil(t, rec.req)
		assert.Equal(t, delivery.Synthesize("pull_request"), rec.req.Headers)
		payload, err := rec.req.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"action": "opened", "number": float64(7)}, payload)
		assert.Nil(t, rec.session)
	})

	t.Run("token_session", func(t *testing.T) {
		t.Setenv(dispatch.EnvToken, "ghs_workflow")
		rec, opener := new(captureRouter), new(fakeOpener)
		require.NoError(t, router.NewActionRunner(rec, router.WithActionSessions(opener)).Run(context.Background()))
		assert.Equal(t, dispatch.Credentials{Token: "ghs_workflow"}, opener.creds)
		assert.Same(t, opener.session, rec.session)
		assert.True(t, opener.session.closed)
	})

	t.Run("no_token", func(t *testing.T) {
		rec, opener := new(captureRouter), new(fakeOpener)
		require.NoError(t, router.NewActionRunner(rec, router.WithActionSessions(opener)).Run(context.Background()))
		assert.Nil(t, opener.session)
		assert.Nil(t, rec.session)
	})

	t.Run("session_failure", func(t *testing.T) {
		t.Setenv(dispatch.EnvToken, "ghs_workflow")
		rec, opener := new(captureRouter), &fakeOpener{err: errors.New("denied")}
		assert.Error(t, router.NewActionRunner(rec, router.WithActionSessions(opener)).Run(context.Background()))
		assert.Nil(t, rec.req)
	})
}

func TestActionRunner_RunErrors(t *testing.T) {
	testCases := []struct {
		Name      string
		Event     string
		EventPath func(t *testing.T) string
	}{
		{
			Name:      "missing_event_name",
			EventPath: func(t *testing.T) string { return writeEvent(t, `{}`) },
		},
		{
			Name:      "missing_event_path",
			Event:     "push",
			EventPath: func(*testing.T) string { return "" },
		},
		{
			Name:      "unreadable_event_path",
			Event:     "push",
			EventPath: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.json") },
		},
		{
			Name:      "invalid_json",
			Event:     "push",
			EventPath: func(t *testing.T) string { return writeEvent(t, `{"ref":`) },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			t.Setenv(dispatch.EnvEventName, tc.Event)
			t.Setenv(dispatch.EnvEventPath, tc.EventPath(t))
			rec := new(captureRouter)
			assert.Error(t, router.NewActionRunner(rec).Run(context.Background()))
			assert.Nil(t, rec.req)
		})
	}
}

// TestReceive_ActionModeThroughRouter drives a stub file from the receiver through the
// workflow environment into the in-process router.
func TestReceive_ActionModeThroughRouter(t *testing.T) {
	for _, k := range []string{
		dispatch.EnvMode, dispatch.EnvActions, dispatch.EnvAction, dispatch.EnvActor, dispatch.EnvEventName,
		dispatch.EnvWorkspace, dispatch.EnvSHA, dispatch.EnvRef, dispatch.EnvRepository, dispatch.EnvToken,
		dispatch.EnvWorkflow, dispatch.EnvEventPath,
	} {
		t.Setenv(k, "")
	}

	stubPath := filepath.Join(t.TempDir(), "push.yml")
	require.NoError(t, os.WriteFile(stubPath, []byte(
		"- x-github-event: push\n---\nref: refs/heads/main\nrepository:\n  full_name: octo/hello\n"), 0o600))

	var routed *processor.Bus
	mux := router.NewMux().On("push", processor.Func(func(_ context.Context, bus *processor.Bus) error {
		routed = bus
		return nil
	}))

	receiver, err := dispatch.NewReceiver(
		dispatch.WithActionHandler(router.NewActionRunner(mux)),
		dispatch.WithTempDir(t.TempDir()))
	require.NoError(t, err)

	require.NoError(t, receiver.Receive(context.Background(), dispatch.Options{
		PayloadPath: stubPath,
		Format:      stub.FormatAuto,
		Credentials: dispatch.Credentials{Token: "ghp_token"},
	}))
	require.NotNil(t, routed)
	assert.Equal(t, "push", routed.Event)
	assert.Equal(t, "octo/hello", routed.Repository.FullName)
	assert.Equal(t, "refs/heads/main", routed.Payload["ref"])
}
