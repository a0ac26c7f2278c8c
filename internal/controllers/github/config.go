package github

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/go-github/v84/github"
	"github.com/isometry/gh-webhook-stub/internal/helpers"
	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"
)

// DefaultConfigName is the installation config file looked up under .github/.
const DefaultConfigName = "config.yml"

// ConfigResolver reads installation config files from a repository.
// In a checkout (a workflow run) without an explicit ref the file is read from disk;
// otherwise it is fetched with the contents API.
type ConfigResolver struct {
	logger     *slog.Logger
	client     *github.Client
	repository string
	checkout   string
}

// ConfigOption configures a ConfigResolver.
type ConfigOption func(*ConfigResolver)

// WithConfigLogger sets the logger of the ConfigResolver.
func WithConfigLogger(logger *slog.Logger) ConfigOption {
	return func(c *ConfigResolver) {
		c.logger = logger
	}
}

// WithCheckout makes the resolver read files from the checkout at dir when no ref is requested.
func WithCheckout(dir string) ConfigOption {
	return func(c *ConfigResolver) {
		c.checkout = dir
	}
}

// CheckoutFromEnv returns the checkout directory of a workflow run, or an empty string outside one.
func CheckoutFromEnv() string {
	if os.Getenv("GITHUB_ACTIONS") != "true" {
		return ""
	}
	if ws := os.Getenv("GITHUB_WORKSPACE"); ws != "" {
		return ws
	}
	return "."
}

// NewConfigResolver returns a resolver for the owner/name repository.
func NewConfigResolver(client *github.Client, repository string, opts ...ConfigOption) *ConfigResolver {
	_inst := &ConfigResolver{client: client, repository: repository}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

// GetConfig returns the YAML mapping stored in .github/<name> at ref.
// A missing file yields an empty mapping.
func (c *ConfigResolver) GetConfig(ctx context.Context, name, ref string) (map[string]any, error) {
	if name == "" {
		name = DefaultConfigName
	}
	configPath := path.Join(".github", name)
	logger := c.logger.With(slog.String("path", configPath), slog.String("ref", ref))

	var (
		content []byte
		err     error
	)
	if c.checkout != "" && ref == "" {
		logger.Debug("reading installation config from checkout...", slog.String("checkout", c.checkout))
		content, err = c.fromCheckout(configPath)
	} else {
		logger.Debug("fetching installation config from the API...", slog.String("repository", c.repository))
		content, err = c.fromAPI(ctx, configPath, ref)
	}
	if err != nil {
		return nil, err
	}
	if content == nil {
		logger.Debug("installation config not found")
		return map[string]any{}, nil
	}

	config := map[string]any{}
	if err = yaml.Unmarshal(content, &config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", configPath)
	}
	return config, nil
}

func (c *ConfigResolver) fromCheckout(configPath string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(c.checkout, filepath.FromSlash(configPath)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", configPath)
	}
	return content, nil
}

func (c *ConfigResolver) fromAPI(ctx context.Context, configPath, ref string) ([]byte, error) {
	if c.client == nil {
		return nil, errors.New("no GitHub client available to fetch the installation config")
	}
	owner, repo, err := SplitRepository(c.repository)
	if err != nil {
		return nil, err
	}

	file, _, resp, err := c.client.Repositories.GetContents(ctx, owner, repo, configPath,
		&github.RepositoryContentGetOptions{Ref: ref})
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s from %s", configPath, c.repository)
	}
	if file == nil || file.GetEncoding() != "base64" || file.Content == nil {
		return nil, nil
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", configPath)
	}
	return []byte(content), nil
}
