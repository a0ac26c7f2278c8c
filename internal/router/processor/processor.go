// Package processor provides the processor chain run by the router for every delivery.
package processor

import (
	"context"
	"log/slog"

	"github.com/google/go-github/v84/github"
	"github.com/isometry/gh-webhook-stub/internal/delivery"
)

// Option is a function that applies an option to a Processor.
type Option = func(Processor)

// Processor is an interface that defines a method to process a request.
// The first processor of a chain receives a *delivery.Request, every later one the *Bus built so far.
type Processor interface {
	SetLogger(logger *slog.Logger)
	Process(ctx context.Context, req any) (*Bus, error)
}

// Repository identifies the repository a delivery refers to.
type Repository struct {
	Owner    string
	Name     string
	FullName string
}

// Bus carries a delivery and everything learned about it through the chain.
type Bus struct {
	Request    *delivery.Request
	Event      string
	DeliveryID string
	Action     string

	Payload map[string]any
	Body    []byte
	// Typed is the go-github event struct, or nil for events go-github does not know.
	Typed any

	Repository     *Repository
	InstallationID int64
	Sender         string

	Client *github.Client
	Config map[string]any

	Archived  string
	Forwarded int
}

// LogValue groups the identifying attributes of the delivery.
func (b *Bus) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("event", b.Event),
		slog.String("deliveryID", b.DeliveryID),
	}
	if b.Action != "" {
		attrs = append(attrs, slog.String("action", b.Action))
	}
	if b.Repository != nil {
		attrs = append(attrs, slog.String("repository", b.Repository.FullName))
	}
	if b.InstallationID != 0 {
		attrs = append(attrs, slog.Int64("installationID", b.InstallationID))
	}
	return slog.GroupValue(attrs...)
}

// Func adapts a function to a Processor operating on an existing *Bus.
type Func func(ctx context.Context, bus *Bus) error

// SetLogger is a no-op; Func processors log through their own closure.
func (f Func) SetLogger(*slog.Logger) {}

// Process calls f with the *Bus.
func (f Func) Process(ctx context.Context, req any) (*Bus, error) {
	bus, err := asBus(req)
	if err != nil {
		return nil, err
	}
	return bus, f(ctx, bus)
}

// Process is a function that processes a request using a list of processors.
// The chain stops at the first error; the *Bus built so far is returned alongside it.
func Process(ctx context.Context, logger *slog.Logger, req any, processors ...Processor) (*Bus, error) {
	bus, _ := req.(*Bus)
	for _, p := range processors {
		p.SetLogger(logger)
		next, err := p.Process(ctx, req)
		if next != nil {
			bus = next
			req = next
		}
		if err != nil {
			return bus, err
		}
	}
	return bus, nil
}

func asBus(req any) (*Bus, error) {
	bus, ok := req.(*Bus)
	if !ok || bus == nil {
		return nil, NewInternalError("invalid request type. expected *processor.Bus got %T", req)
	}
	return bus, nil
}

func applyOpts(m Processor, opts ...Option) {
	for _, opt := range opts {
		opt(m)
	}
}
