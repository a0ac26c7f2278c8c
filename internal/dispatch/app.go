package dispatch

import (
	"context"
	"log/slog"

	"github.com/isometry/gh-webhook-stub/internal/delivery"
	"github.com/pkg/errors"
)

// Router consumes a synthetic webhook request.
type Router interface {
	Route(ctx context.Context, req *delivery.Request) error
}

// Session is an open GitHub client session scoped to one dispatch.
type Session interface {
	Close() error
}

// SessionOpener opens a Session for the given credentials.
type SessionOpener interface {
	OpenSession(ctx context.Context, creds Credentials) (Session, error)
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the Session carried by ctx, if any.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok && s != nil
}

func (r *Receiver) dispatchApp(ctx context.Context, plan *Plan, creds Credentials) error {
	if r.router == nil {
		return errors.New("no router configured")
	}
	if r.sessions == nil {
		return errors.New("no session opener configured")
	}

	session, err := r.sessions.OpenSession(ctx, creds)
	if err != nil {
		return errors.Wrap(err, "failed to open GitHub App session")
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			r.logger.Warn("failed to close GitHub App session", slog.Any("error", closeErr))
		}
	}()

	req := delivery.NewRequest(plan.Headers, plan.Payload)
	r.logger.Info("routing delivery",
		slog.String("event", req.Event()), slog.String("deliveryID", req.DeliveryID()), slog.Int64("appID", creds.AppID))
	return r.router.Route(WithSession(ctx, session), req)
}
