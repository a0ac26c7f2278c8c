package dispatch

import "log/slog"

// Mode is the execution mode a delivery is dispatched in.
type Mode string

const (
	// ActionMode simulates a workflow run on a checkout: the payload is exposed through the environment.
	ActionMode Mode = "action"
	// AppMode simulates a webhook delivery to a GitHub App.
	AppMode Mode = "app"
)

// Credentials holds the GitHub credentials supplied for a run.
// Exactly one of Token, or AppID together with PrivateKey, must be set.
type Credentials struct {
	Token      string
	AppID      int64
	PrivateKey string
}

// Validate checks the credential shape without touching the filesystem or the network.
func (c Credentials) Validate() error {
	hasToken := c.Token != ""
	hasAppID := c.AppID != 0
	hasKey := c.PrivateKey != ""

	switch {
	case hasAppID && !hasKey:
		return &CredentialsError{Reason: "App requires a private key"}
	case hasKey && !hasAppID:
		return &CredentialsError{Reason: "private key requires an App ID"}
	case !hasToken && !hasAppID:
		return &CredentialsError{Reason: "any GitHub auth credentials are missing"}
	case hasToken && hasAppID:
		return &CredentialsError{Reason: "please choose between a token or an App ID with a private key"}
	}
	return nil
}

// Mode derives the execution mode from the credential shape.
func (c Credentials) Mode() Mode {
	if c.AppID == 0 {
		return ActionMode
	}
	return AppMode
}

// LogValue hides secrets from structured logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("token", c.Token != ""),
		slog.Int64("appID", c.AppID),
		slog.Bool("privateKey", c.PrivateKey != ""),
	)
}
