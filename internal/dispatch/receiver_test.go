package dispatch_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/isometry/gh-webhook-stub/internal/delivery"
	"github.com/isometry/gh-webhook-stub/internal/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pushStub = `ref: refs/heads/main
after: "0000000000000000000000000000000000000001"
head_commit:
  id: "0000000000000000000000000000000000000002"
repository:
  full_name: octo/hello
sender:
  login: octocat
`

func writeStub(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// isolateActionEnv restores every variable an action dispatch writes once the test ends.
func isolateActionEnv(t *testing.T) {
	t.Helper()
	for k := range dispatch.ActionEnv("", nil, "", "") {
		t.Setenv(k, "")
	}
	t.Setenv(dispatch.EnvEventPath, "")
}

func TestReceive_CredentialsCheckedFirst(t *testing.T) {
	opened := false
	opener := func(string) (io.ReadSeekCloser, error) {
		opened = true
		return nil, errors.New("must not be called")
	}
	r, err := dispatch.NewReceiver(dispatch.WithOpener(opener))
	require.NoError(t, err)

	err = r.Receive(context.Background(), dispatch.Options{
		Event:       "push",
		PayloadPath: "does-not-exist.yaml",
		Credentials: dispatch.Credentials{Token: "ghp_x", AppID: 1, PrivateKey: "key"},
	})
	var credErr *dispatch.CredentialsError
	require.ErrorAs(t, err, &credErr)
	assert.False(t, opened)
}

func TestReceive_ActionMode(t *testing.T) {
	testCases := []struct {
		Name       string
		HandlerErr error
	}{
		{Name: "handler_succeeds"},
		{Name: "handler_fails", HandlerErr: errors.New("boom")},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			isolateActionEnv(t)
			tmp := t.TempDir()

			var (
				eventPath string
				seenEnv   = map[string]string{}
				seenBody  map[string]any
			)
			handler := dispatch.ActionHandlerFunc(func(context.Context) error {
				for k := range dispatch.ActionEnv("", nil, "", "") {
					seenEnv[k] = os.Getenv(k)
				}
				eventPath = os.Getenv(dispatch.EnvEventPath)
				raw, err := os.ReadFile(eventPath)
				require.NoError(t, err)
				require.NoError(t, json.Unmarshal(raw, &seenBody))
				return tc.HandlerErr
			})

			r, err := dispatch.NewReceiver(
				dispatch.WithActionHandler(handler),
				dispatch.WithTempDir(tmp),
				dispatch.WithWorkspace("/work"))
			require.NoError(t, err)

			err = r.Receive(context.Background(), dispatch.Options{
				Event:       "push",
				PayloadPath: writeStub(t, "push.yaml", pushStub),
				Credentials: dispatch.Credentials{Token: "ghp_x"},
			})
			if tc.HandlerErr != nil {
				assert.ErrorIs(t, err, tc.HandlerErr)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, "action", seenEnv["WEBHOOK_STUB_MODE"])
			assert.Equal(t, "octocat", seenEnv["GITHUB_ACTOR"])
			assert.Equal(t, "push", seenEnv["GITHUB_EVENT_NAME"])
			assert.Equal(t, "/work", seenEnv["GITHUB_WORKSPACE"])
			assert.Equal(t, "0000000000000000000000000000000000000002", seenEnv["GITHUB_SHA"])
			assert.Equal(t, "refs/heads/main", seenEnv["GITHUB_REF"])
			assert.Equal(t, "octo/hello", seenEnv["GITHUB_REPOSITORY"])
			assert.Equal(t, "ghp_x", seenEnv["GITHUB_TOKEN"])
			assert.Equal(t, "refs/heads/main", seenBody["ref"])

			base := filepath.Base(eventPath)
			assert.True(t, strings.HasPrefix(base, "github-workflow-event-"), base)
			assert.True(t, strings.HasSuffix(base, ".json"), base)
			assert.NoFileExists(t, eventPath)
			entries, err := os.ReadDir(tmp)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestReceive_ActionModeRejectsBeforeMutation(t *testing.T) {
	isolateActionEnv(t)
	called := false
	handler := dispatch.ActionHandlerFunc(func(context.Context) error {
		called = true
		return nil
	})
	r, err := dispatch.NewReceiver(dispatch.WithActionHandler(handler))
	require.NoError(t, err)

	err = r.Receive(context.Background(), dispatch.Options{
		Event:       "push",
		PayloadPath: writeStub(t, "push.yaml", "---\n- x-github-event: push\n---\nref: main\n"),
		Credentials: dispatch.Credentials{Token: "ghp_x"},
	})
	var conflict *dispatch.ConflictingInputsError
	require.ErrorAs(t, err, &conflict)
	assert.False(t, called)
	assert.Empty(t, os.Getenv("GITHUB_EVENT_NAME"))
}

func TestReceive_ActionModeEventFile(t *testing.T) {
	testCases := []struct {
		Name         string
		Stub         string
		ExpectedBody map[string]any
		ExpectError  bool
	}{
		{
			Name:         "non_string_keys",
			Stub:         "ref: main\nstatuses:\n  200: ok\n",
			ExpectedBody: map[string]any{"ref": "main", "statuses": map[string]any{"200": "ok"}},
		},
		{
			Name:        "payload_not_encodable",
			Stub:        "ref: main\nvalue: .nan\n",
			ExpectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			isolateActionEnv(t)
			tmp := t.TempDir()

			called := false
			var seenBody map[string]any
			handler := dispatch.ActionHandlerFunc(func(context.Context) error {
				called = true
				raw, err := os.ReadFile(os.Getenv(dispatch.EnvEventPath))
				require.NoError(t, err)
				require.NoError(t, json.Unmarshal(raw, &seenBody))
				return nil
			})
			r, err := dispatch.NewReceiver(
				dispatch.WithActionHandler(handler),
				dispatch.WithTempDir(tmp))
			require.NoError(t, err)

			err = r.Receive(context.Background(), dispatch.Options{
				Event:       "push",
				PayloadPath: writeStub(t, "push.yaml", tc.Stub),
				Credentials: dispatch.Credentials{Token: "ghp_x"},
			})

			if tc.ExpectError {
				require.Error(t, err)
				assert.False(t, called)
				for k := range dispatch.ActionEnv("", nil, "", "") {
					assert.Empty(t, os.Getenv(k), k)
				}
				assert.Empty(t, os.Getenv(dispatch.EnvEventPath))
			} else {
				require.NoError(t, err)
				assert.True(t, called)
				assert.Equal(t, tc.ExpectedBody, seenBody)
			}

			entries, err := os.ReadDir(tmp)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

type fakeSession struct {
	closed bool
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeOpener struct {
	session *fakeSession
	creds   dispatch.Credentials
}

func (o *fakeOpener) OpenSession(_ context.Context, creds dispatch.Credentials) (dispatch.Session, error) {
	o.creds = creds
	o.session = new(fakeSession)
	return o.session, nil
}

type fakeRouter struct {
	req     *delivery.Request
	payload any
	session dispatch.Session
	err     error
}

func (r *fakeRouter) Route(ctx context.Context, req *delivery.Request) error {
	r.req = req
	r.session, _ = dispatch.SessionFromContext(ctx)
	r.payload, _ = req.Read(ctx)
	return r.err
}

func TestReceive_AppMode(t *testing.T) {
	testCases := []struct {
		Name     string
		Event    string
		Stub     string
		RouteErr error
		Expected map[string]string
	}{
		{
			Name:  "synthesized_headers",
			Event: "push",
			Stub:  pushStub,
			Expected: map[string]string{
				"content-type":      "application/json",
				"user-agent":        delivery.FallbackUserAgent,
				"x-github-delivery": delivery.FallbackDeliveryID,
				"x-github-event":    "push",
			},
		},
		{
			Name:     "embedded_headers",
			Stub:     "{\"X-GitHub-Event\":\"issues\",\"User-Agent\":\"GitHub-Hookshot/044aadd\"}\n{\"action\":\"opened\"}\n",
			RouteErr: errors.New("handler failed"),
			Expected: map[string]string{
				"content-type":      "application/json",
				"user-agent":        "GitHub-Hookshot/044aadd",
				"x-github-delivery": delivery.FallbackDeliveryID,
				"x-github-event":    "issues",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			opener := new(fakeOpener)
			router := &fakeRouter{err: tc.RouteErr}
			r, err := dispatch.NewReceiver(dispatch.WithRouter(router), dispatch.WithSessionOpener(opener))
			require.NoError(t, err)

			creds := dispatch.Credentials{AppID: 42, PrivateKey: "pem"}
			err = r.Receive(context.Background(), dispatch.Options{
				Event:       tc.Event,
				PayloadPath: writeStub(t, "stub", tc.Stub),
				Credentials: creds,
			})
			if tc.RouteErr != nil {
				assert.ErrorIs(t, err, tc.RouteErr)
			} else {
				require.NoError(t, err)
			}

			require.NotNil(t, router.req)
			assert.Equal(t, "POST", router.req.Method)
			assert.Equal(t, "/", router.req.Path)
			assert.Equal(t, tc.Expected, router.req.Headers.Map())
			assert.NotNil(t, router.payload)
			assert.Equal(t, creds, opener.creds)
			assert.Same(t, opener.session, router.session)
			assert.True(t, opener.session.closed)
		})
	}
}

func TestExecHandler(t *testing.T) {
	isolateActionEnv(t)
	t.Setenv(dispatch.EnvEventName, "push")

	var out bytes.Buffer
	h, err := dispatch.NewExecHandler([]string{"sh", "-c", `printf '%s' "$GITHUB_EVENT_NAME"`})
	require.NoError(t, err)
	h.Stdout = &out
	require.NoError(t, h.Run(context.Background()))
	assert.Equal(t, "push", out.String())

	h, err = dispatch.NewExecHandler([]string{"sh", "-c", "exit 3"})
	require.NoError(t, err)
	assert.Error(t, h.Run(context.Background()))

	_, err = dispatch.NewExecHandler(nil)
	assert.Error(t, err)
}
