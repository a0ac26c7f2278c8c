package github

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v84/github"
	"github.com/pkg/errors"
)

// Session holds the GitHub clients opened for one dispatch.
// A token session has a single client; an App session authenticates as the App and
// spawns one client per installation on demand.
type Session struct {
	logger  *slog.Logger
	client  *github.Client
	apps    *ghinstallation.AppsTransport
	appID   int64
	newHTTP func(http.RoundTripper) (*github.Client, error)

	mu      sync.Mutex
	clients map[int64]*github.Client
	closed  bool
}

// IsApp reports whether the session authenticates as a GitHub App.
func (s *Session) IsApp() bool {
	return s.apps != nil
}

// AppID returns the App ID of an App session, or zero.
func (s *Session) AppID() int64 {
	return s.appID
}

// Client returns the App-level client of an App session, or the token client.
func (s *Session) Client() *github.Client {
	return s.client
}

// InstallationClient returns a client authenticated as the given installation.
// Token sessions ignore the installation and return their only client.
func (s *Session) InstallationClient(_ context.Context, installationID int64) (*github.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("session is closed")
	}
	if !s.IsApp() {
		return s.client, nil
	}
	if installationID == 0 {
		return nil, errors.New("no installation ID found")
	}
	if client, ok := s.clients[installationID]; ok {
		s.logger.Debug("cache hit. using cached client...", slog.Int64("installationID", installationID))
		return client, nil
	}

	s.logger.Debug("cache miss. spawning client...", slog.Int64("installationID", installationID))
	itr := ghinstallation.NewFromAppsTransport(s.apps, installationID)
	itr.BaseURL = s.apps.BaseURL
	client, err := s.newHTTP(itr)
	if err != nil {
		return nil, err
	}
	s.clients[installationID] = client
	return client, nil
}

// RepositoryClient returns a client able to act on owner/repo.
// App sessions look the repository installation up first.
func (s *Session) RepositoryClient(ctx context.Context, fullName string) (*github.Client, error) {
	if !s.IsApp() {
		return s.client, nil
	}
	owner, repo, err := SplitRepository(fullName)
	if err != nil {
		return nil, err
	}
	inst, _, err := s.client.Apps.FindRepositoryInstallation(ctx, owner, repo)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find the installation of %s", fullName)
	}
	return s.InstallationClient(ctx, inst.GetID())
}

// Close drops every cached client. The session cannot be used afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	clear(s.clients)
	return nil
}

// SplitRepository splits an owner/name repository slug.
func SplitRepository(fullName string) (owner, repo string, err error) {
	owner, repo, found := strings.Cut(fullName, "/")
	if !found || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", errors.Errorf("invalid repository %q, expected owner/name", fullName)
	}
	return owner, repo, nil
}
