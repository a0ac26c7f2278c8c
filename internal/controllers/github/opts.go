package github

import (
	"log/slog"
	"net/http"
)

// WithLogger sets a custom logger for the Controller instance to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Controller) {
		a.logger = logger
	}
}

// WithAWSController sets the parameter store used to resolve ssm: private key references.
func WithAWSController(secrets SecretGetter) Option {
	return func(a *Controller) {
		a.secrets = secrets
	}
}

// WithBaseURL points every client at a GitHub Enterprise Server API URL.
func WithBaseURL(baseURL string) Option {
	return func(a *Controller) {
		a.baseURL = baseURL
	}
}

// WithTransport sets the base transport underneath authentication and rate limiting.
func WithTransport(rt http.RoundTripper) Option {
	return func(a *Controller) {
		a.transport = rt
	}
}
