// Package config provides a centralized entrypoint for the application parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"
)

var (
	// Global is a struct that contains the global configuration.
	Global global
	// GitHub is a struct that contains the GitHub credentials and API settings.
	GitHub github
	// Receive is a struct that contains the stub and dispatch settings of the receive command.
	Receive receive
	// Archive is a struct that contains the S3 archiving settings of routed deliveries.
	Archive archive
	// Forward is a struct that contains the settings for replaying deliveries against a webhook receiver.
	Forward forward
)

type global struct {
	// Logging is a struct that contains the logging configuration.
	Logging struct {
		// Verbosity is the verbosity level of the application. It represents slog levels.
		Verbosity int `yaml:"verbosity,omitempty"`
		// CallerTrace is a flag that enables the caller trace in the logger.
		CallerTrace bool `yaml:"callerTrace,omitempty"`
	} `yaml:"logging,omitempty"`
	// DotEnv is the dotenv file seeding the environment. A missing file is ignored.
	DotEnv string `yaml:"dotEnv,omitempty" default:".env"`
}

type github struct {
	Token string `yaml:"token,omitempty"`
	AppID int64  `yaml:"appID,omitempty"`
	// PrivateKey is a PEM file path, inline PEM data, or an ssm:<parameter> reference.
	PrivateKey    string `yaml:"privateKey,omitempty"`
	WebhookSecret string `yaml:"webhookSecret,omitempty"`
	// BaseURL points the API clients at a GitHub Enterprise Server.
	BaseURL    string `yaml:"baseURL,omitempty"`
	ConfigName string `yaml:"configName,omitempty" default:"config.yml"`
}

type receive struct {
	Event       string `yaml:"event,omitempty"`
	PayloadPath string `yaml:"payloadPath,omitempty"`
	Format      string `yaml:"format,omitempty" default:"auto"`
	// Workspace is exported as GITHUB_WORKSPACE in action mode. Empty means the working directory.
	Workspace string `yaml:"workspace,omitempty"`
}

type archive struct {
	Enabled    bool   `yaml:"enabled,omitempty"`
	BucketName string `yaml:"bucketName,omitempty"`
	Prefix     string `yaml:"prefix,omitempty" default:"stubs/"`
	// Endpoint overrides the AWS endpoint, e.g. for LocalStack.
	Endpoint string `yaml:"endpoint,omitempty"`
}

type forward struct {
	URL     string        `yaml:"url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty" default:"10s"`
}

// SetDefaults sets the default values for the configuration.
func SetDefaults() error {
	return errors.Join(
		defaults.Set(&Global),
		defaults.Set(&GitHub),
		defaults.Set(&Receive),
		defaults.Set(&Archive),
		defaults.Set(&Forward),
	)
}

// Reset clears every section.
func Reset() {
	Global, GitHub, Receive, Archive, Forward = global{}, github{}, receive{}, archive{}, forward{}
}

// LoadFromFile loads the configuration from a file.
func LoadFromFile(path string) error {
	if len(path) == 0 {
		return nil
	}
	fstat, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // If the file does not exist, we ignore it.
	}
	if fstat.IsDir() {
		return fmt.Errorf("configuration file %s is a directory", path)
	}
	if !fstat.Mode().IsRegular() {
		return fmt.Errorf("configuration file %s is not a regular file", path)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	type all struct {
		Global  global  `yaml:"global,omitempty"`
		GitHub  github  `yaml:"github,omitempty"`
		Receive receive `yaml:"receive,omitempty"`
		Archive archive `yaml:"archive,omitempty"`
		Forward forward `yaml:"forward,omitempty"`
	}
	var a all
	if err = yaml.Unmarshal(content, &a); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
	}
	Global = a.Global
	GitHub = a.GitHub
	Receive = a.Receive
	Archive = a.Archive
	Forward = a.Forward

	return nil
}

// LoadDotEnv seeds the process environment from a dotenv file. Variables already set win.
func LoadDotEnv(path string) error {
	if len(path) == 0 {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load dotenv file %s: %w", path, err)
	}
	return nil
}
