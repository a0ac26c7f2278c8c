// Package github provides a Controller for GitHub sessions, credentials and installation configuration.
package github

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/google/go-github/v84/github"
	"github.com/isometry/gh-webhook-stub/internal/dispatch"
	"github.com/isometry/gh-webhook-stub/internal/helpers"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// SSMKeyPrefix marks a private key reference stored in SSM Parameter Store.
const SSMKeyPrefix = "ssm:"

// SecretGetter fetches secrets from a parameter store.
type SecretGetter interface {
	GetSecret(ctx context.Context, key string, encrypted bool) (string, error)
}

// Option is a functional option used to configure a Controller.
type Option func(*Controller)

// Controller opens GitHub sessions from dispatch credentials.
type Controller struct {
	logger    *slog.Logger
	secrets   SecretGetter
	baseURL   string
	transport http.RoundTripper
}

// NewController initializes a new Controller with the provided options, setting defaults where necessary.
func NewController(opts ...Option) (*Controller, error) {
	_inst := new(Controller)
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	if _inst.transport == nil {
		_inst.transport = http.DefaultTransport
	}
	if _inst.baseURL != "" {
		if _, err := url.Parse(_inst.baseURL); err != nil {
			return nil, errors.Wrapf(err, "invalid GitHub API URL %q", _inst.baseURL)
		}
	}
	return _inst, nil
}

// OpenSession returns a token session or a GitHub App session depending on the credential shape.
// No request is sent until a client of the session is used.
func (g *Controller) OpenSession(ctx context.Context, creds dispatch.Credentials) (dispatch.Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	rt := &loggingRoundTripper{logger: g.logger, next: g.transport}

	if creds.Mode() == dispatch.ActionMode {
		g.logger.Debug("opening token session...")
		tokenTransport := &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token}),
			Base:   rt,
		}
		client, err := g.newClient(tokenTransport)
		if err != nil {
			return nil, err
		}
		return &Session{logger: g.logger, client: client}, nil
	}

	g.logger.Debug("opening GitHub App session...", slog.Int64("appID", creds.AppID))
	key, err := g.privateKey(ctx, creds.PrivateKey)
	if err != nil {
		return nil, err
	}
	apps, err := ghinstallation.NewAppsTransport(rt, creds.AppID, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create apps transport")
	}
	if g.baseURL != "" {
		apps.BaseURL = strings.TrimSuffix(g.baseURL, "/")
	}
	client, err := g.newClient(apps)
	if err != nil {
		return nil, err
	}
	return &Session{
		logger:  g.logger.With(slog.Int64("appID", creds.AppID)),
		client:  client,
		apps:    apps,
		appID:   creds.AppID,
		newHTTP: g.newClient,
		clients: make(map[int64]*github.Client),
	}, nil
}

func (g *Controller) newClient(rt http.RoundTripper) (*github.Client, error) {
	client := github.NewClient(github_ratelimit.NewClient(rt))
	if g.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(g.baseURL, "/") + "/")
		if err != nil {
			return nil, errors.Wrap(err, "invalid GitHub API URL")
		}
		client.BaseURL = u
	}
	return client, nil
}

// privateKey resolves a private key reference: an ssm: parameter, inline PEM data or a file path.
func (g *Controller) privateKey(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, SSMKeyPrefix):
		if g.secrets == nil {
			return nil, errors.New("private key is stored in SSM but no AWS controller is configured")
		}
		key := strings.TrimPrefix(ref, SSMKeyPrefix)
		g.logger.Debug("retrieving private key from SSM...", slog.String("key", key))
		secret, err := g.secrets.GetSecret(ctx, key, true)
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch private key from SSM")
		}
		return []byte(secret), nil
	case strings.Contains(ref, "-----BEGIN"):
		return []byte(ref), nil
	default:
		key, err := os.ReadFile(filepath.Clean(ref))
		if err != nil {
			return nil, errors.Wrap(err, "failed to read private key")
		}
		return key, nil
	}
}
