package github_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/isometry/gh-webhook-stub/internal/controllers/github"
	"github.com/isometry/gh-webhook-stub/internal/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = "labels:\n  - bug\n  - triage\nenabled: true\n"

type fakeAPI struct {
	*httptest.Server

	mu    sync.Mutex
	auths map[string]string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{auths: make(map[string]string)}
	mux := http.NewServeMux()
	record := func(name string, r *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()
		api.auths[name] = r.Header.Get("Authorization")
	}
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("POST /app/installations/7/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		record("access_tokens", r)
		writeJSON(w, http.StatusCreated, map[string]any{"token": "ghs_installation", "expires_at": "2099-01-01T00:00:00Z"})
	})
	mux.HandleFunc("GET /repos/octo/hello/installation", func(w http.ResponseWriter, r *http.Request) {
		record("installation", r)
		writeJSON(w, http.StatusOK, map[string]any{"id": 7})
	})
	mux.HandleFunc("GET /repos/octo/hello/contents/.github/config.yml", func(w http.ResponseWriter, r *http.Request) {
		record("contents", r)
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"name":     "config.yml",
			"path":     ".github/config.yml",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte(testConfig)),
		})
	})
	mux.HandleFunc("GET /repos/octo/hello/contents/.github/missing.yml", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	})

	api.Server = httptest.NewServer(mux)
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) auth(name string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.auths[name]
}

func newPrivateKey(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

var expectedConfig = map[string]any{"labels": []any{"bug", "triage"}, "enabled": true}

func TestController_TokenSession(t *testing.T) {
	api := newFakeAPI(t)
	ctl, err := github.NewController(github.WithBaseURL(api.URL))
	require.NoError(t, err)

	s, err := ctl.OpenSession(context.Background(), dispatch.Credentials{Token: "ghp_token"})
	require.NoError(t, err)
	session := s.(*github.Session)
	assert.False(t, session.IsApp())

	client, err := session.InstallationClient(context.Background(), 0)
	require.NoError(t, err)
	resolver := github.NewConfigResolver(client, "octo/hello")

	config, err := resolver.GetConfig(context.Background(), "", "main")
	require.NoError(t, err)
	assert.Equal(t, expectedConfig, config)
	assert.Equal(t, "Bearer ghp_token", api.auth("contents"))

	config, err = resolver.GetConfig(context.Background(), "missing.yml", "main")
	require.NoError(t, err)
	assert.Empty(t, config)

	require.NoError(t, session.Close())
	_, err = session.InstallationClient(context.Background(), 0)
	assert.Error(t, err)
}

func TestController_AppSession(t *testing.T) {
	api := newFakeAPI(t)
	keyPath := filepath.Join(t.TempDir(), "app.pem")
	require.NoError(t, os.WriteFile(keyPath, newPrivateKey(t), 0o600))

	ctl, err := github.NewController(github.WithBaseURL(api.URL))
	require.NoError(t, err)
	s, err := ctl.OpenSession(context.Background(), dispatch.Credentials{AppID: 1, PrivateKey: keyPath})
	require.NoError(t, err)
	session := s.(*github.Session)
	assert.True(t, session.IsApp())
	assert.Equal(t, int64(1), session.AppID())

	_, err = session.InstallationClient(context.Background(), 0)
	assert.Error(t, err)

	client, err := session.RepositoryClient(context.Background(), "octo/hello")
	require.NoError(t, err)
	assert.Contains(t, api.auth("installation"), "Bearer ")

	config, err := github.NewConfigResolver(client, "octo/hello").GetConfig(context.Background(), "config.yml", "")
	require.NoError(t, err)
	assert.Equal(t, expectedConfig, config)
	assert.Contains(t, api.auth("access_tokens"), "Bearer ")
	assert.Contains(t, api.auth("contents"), "ghs_installation")

	again, err := session.InstallationClient(context.Background(), 7)
	require.NoError(t, err)
	assert.Same(t, client, again)

	require.NoError(t, session.Close())
	_, err = session.InstallationClient(context.Background(), 7)
	assert.Error(t, err)
}

type fakeSecrets struct {
	values map[string]string
	seen   []string
}

func (f *fakeSecrets) GetSecret(_ context.Context, key string, _ bool) (string, error) {
	f.seen = append(f.seen, key)
	return f.values[key], nil
}

func TestController_PrivateKeyReferences(t *testing.T) {
	pemKey := newPrivateKey(t)
	secrets := &fakeSecrets{values: map[string]string{"/github/app-key": string(pemKey)}}

	testCases := []struct {
		Name        string
		Reference   string
		Options     []github.Option
		ExpectError bool
	}{
		{
			Name:      "ssm",
			Reference: "ssm:/github/app-key",
			Options:   []github.Option{github.WithAWSController(secrets)},
		},
		{
			Name:        "ssm_without_aws",
			Reference:   "ssm:/github/app-key",
			ExpectError: true,
		},
		{
			Name:      "inline_pem",
			Reference: string(pemKey),
		},
		{
			Name:        "missing_file",
			Reference:   filepath.Join(t.TempDir(), "nope.pem"),
			ExpectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctl, err := github.NewController(tc.Options...)
			require.NoError(t, err)
			s, err := ctl.OpenSession(context.Background(), dispatch.Credentials{AppID: 1, PrivateKey: tc.Reference})
			if tc.ExpectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, s.Close())
		})
	}
	assert.Equal(t, []string{"/github/app-key"}, secrets.seen)
}

func TestController_InvalidCredentials(t *testing.T) {
	ctl, err := github.NewController()
	require.NoError(t, err)
	_, err = ctl.OpenSession(context.Background(), dispatch.Credentials{})
	var credErr *dispatch.CredentialsError
	assert.ErrorAs(t, err, &credErr)
}
