package cmd

import (
	"github.com/isometry/gh-webhook-stub/internal/config"
	"github.com/isometry/gh-webhook-stub/internal/helpers"
)

var envMapString = map[*string]boundEnvVar[string]{
	&config.GitHub.Token: {
		Name:        "token",
		Description: "GitHub token. Selects action mode; mutually exclusive with --app",
		Env:         helpers.Ptr("GITHUB_TOKEN"),
		Short:       helpers.Ptr("t"),
	},
	&config.GitHub.PrivateKey: {
		Name:        "private-key",
		Description: "GitHub App private key: a PEM file path, inline PEM data or ssm:<parameter>",
		Env:         helpers.Ptr("GITHUB_PRIVATE_KEY"),
		Short:       helpers.Ptr("P"),
	},
	&config.GitHub.WebhookSecret: {
		Name:        "webhook-secret",
		Description: "Secret used to sign forwarded deliveries. If not specified, forwarded deliveries are unsigned",
		Env:         helpers.Ptr("GITHUB_WEBHOOK_SECRET"),
	},
	&config.GitHub.BaseURL: {
		Name:        "github-api-url",
		Description: "GitHub API URL, for GitHub Enterprise Server",
		Env:         helpers.Ptr("GITHUB_API_URL"),
	},
	&config.GitHub.ConfigName: {
		Name:        "config-name",
		Description: "Installation config file looked up under .github/",
	},
}

var envMapBool = map[*bool]boundEnvVar[bool]{
	&config.Global.Logging.CallerTrace: {
		Name:        "verbosity-caller-trace",
		Description: "Enable caller trace in logs",
		Short:       helpers.Ptr("V"),
	},
}

var envMapCount = map[*int]boundEnvVar[int]{
	&config.Global.Logging.Verbosity: {
		Name:        "verbosity",
		Description: "Increase logger verbosity (default WarnLevel)",
		Short:       helpers.Ptr("v"),
	},
}

var envMapInt64 = map[*int64]boundEnvVar[int64]{
	&config.GitHub.AppID: {
		Name:        "app",
		Description: "GitHub App ID. Selects App mode; requires --private-key",
		Env:         helpers.Ptr("GITHUB_APP_ID"),
		Short:       helpers.Ptr("a"),
	},
}
