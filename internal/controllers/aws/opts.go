package aws

import (
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// WithLogger sets a custom slog.Logger instance for the Controller struct to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Controller) {
		a.logger = logger
	}
}

// WithConfig uses cfg instead of loading the default AWS configuration chain.
func WithConfig(cfg aws.Config) Option {
	return func(a *Controller) {
		a.config = &cfg
	}
}

// WithEndpoint overrides the service endpoint, e.g. for LocalStack. S3 switches to path-style addressing.
func WithEndpoint(endpoint string) Option {
	return func(a *Controller) {
		a.endpoint = endpoint
	}
}
