// Package router routes synthetic webhook deliveries through processor chains registered per event.
package router

import (
	"context"
	"log/slog"
	"slices"

	"github.com/isometry/gh-webhook-stub/internal/delivery"
	"github.com/isometry/gh-webhook-stub/internal/helpers"
	"github.com/isometry/gh-webhook-stub/internal/router/processor"
	"github.com/pkg/errors"
)

// AnyEvent registers processors for every event without a dedicated registration.
const AnyEvent = "*"

// Option defines a function type used to configure a Mux.
type Option func(*Mux)

// Mux is an in-process webhook router. Every delivery runs through
// intake, the pre-processors, the processors registered for its event, then the post-processors.
type Mux struct {
	logger   *slog.Logger
	pre      []processor.Processor
	post     []processor.Processor
	handlers map[string][]processor.Processor
}

// NewMux creates a Mux with no event registrations.
func NewMux(opts ...Option) *Mux {
	_inst := &Mux{handlers: make(map[string][]processor.Processor)}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("component", "router")
	return _inst
}

// On registers processors for event. Repeated registrations append.
func (m *Mux) On(event string, processors ...processor.Processor) *Mux {
	m.handlers[event] = append(m.handlers[event], processors...)
	return m
}

// Events returns the registered event names, sorted.
func (m *Mux) Events() []string {
	events := make([]string, 0, len(m.handlers))
	for event := range m.handlers {
		events = append(events, event)
	}
	slices.Sort(events)
	return events
}

// Route runs req through the chain of its event. Deliveries without a registration are logged and dropped.
func (m *Mux) Route(ctx context.Context, req *delivery.Request) error {
	if req == nil {
		return errors.New("nil request")
	}
	event := req.Event()
	logger := m.logger.With(slog.String("event", event), slog.String("deliveryID", req.DeliveryID()))

	handlers, ok := m.handlers[event]
	if !ok {
		handlers, ok = m.handlers[AnyEvent]
	}
	if !ok {
		logger.Info("no handler registered for event. ignoring delivery")
		return nil
	}

	chain := make([]processor.Processor, 0, 1+len(m.pre)+len(handlers)+len(m.post))
	chain = append(chain, processor.NewIntakePreProcessor())
	chain = append(chain, m.pre...)
	chain = append(chain, handlers...)
	chain = append(chain, m.post...)

	logger.Debug("routing delivery...", slog.Int("processors", len(chain)))
	bus, err := processor.Process(ctx, logger, req, chain...)
	if err != nil {
		logger.Warn("failed to process delivery", slog.Any("error", err))
		return errors.Wrapf(err, "failed to process %s delivery", event)
	}
	logger.Debug("delivery processed", slog.Any("bus", bus))
	return nil
}
