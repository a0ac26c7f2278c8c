package cmd

import (
	"time"

	"github.com/isometry/gh-webhook-stub/internal/config"
	"github.com/isometry/gh-webhook-stub/internal/helpers"
)

// stubEnvMapString is shared by every command reading a stub file.
var stubEnvMapString = map[*string]boundEnvVar[string]{
	&config.Receive.Event: {
		Name:        "event",
		Description: "Event name. Required unless the stub carries its own headers",
		Short:       helpers.Ptr("e"),
	},
	&config.Receive.PayloadPath: {
		Name:        "payload-path",
		Description: "Path to the event stub file (YAML, JSONL or JSON)",
		Short:       helpers.Ptr("p"),
	},
	&config.Receive.Format: {
		Name:        "format",
		Description: "Stub encoding. Supported values are 'auto', 'yaml', 'jsonl' and 'json'",
	},
}

var receiveEnvMapString = map[*string]boundEnvVar[string]{
	&config.Receive.Workspace: {
		Name:        "workspace",
		Description: "Directory exported as GITHUB_WORKSPACE in action mode (default the working directory)",
	},
	&config.Archive.BucketName: {
		Name:        "archive-bucket",
		Description: "S3 bucket receiving archived deliveries",
		Env:         helpers.Ptr("S3_BUCKET_NAME"),
	},
	&config.Archive.Prefix: {
		Name:        "archive-prefix",
		Description: "Key prefix of archived deliveries",
	},
	&config.Archive.Endpoint: {
		Name:        "aws-endpoint",
		Description: "AWS endpoint override, e.g. a LocalStack URL",
		Env:         helpers.Ptr("AWS_ENDPOINT_URL"),
	},
	&config.Forward.URL: {
		Name:        "forward-url",
		Description: "Webhook receiver URL every routed delivery is replayed against",
	},
}

var receiveEnvMapBool = map[*bool]boundEnvVar[bool]{
	&config.Archive.Enabled: {
		Name:        "archive",
		Description: "Archive routed deliveries to S3",
	},
}

var receiveEnvMapDuration = map[*time.Duration]boundEnvVar[time.Duration]{
	&config.Forward.Timeout: {
		Name:        "forward-timeout",
		Description: "Timeout of a forwarded delivery",
	},
}
