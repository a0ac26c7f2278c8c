package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/isometry/gh-webhook-stub/internal/helpers"
)

type summaryPostProcessor struct {
	logger *slog.Logger
}

// NewSummaryPostProcessor returns a Processor logging one line per routed delivery.
func NewSummaryPostProcessor(opts ...Option) Processor {
	_inst := &summaryPostProcessor{logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *summaryPostProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger
}

func (p *summaryPostProcessor) Process(_ context.Context, req any) (*Bus, error) {
	bus, err := asBus(req)
	if err != nil {
		return nil, err
	}

	attrs := []any{slog.Any("delivery", bus)}
	if bus.Sender != "" {
		attrs = append(attrs, slog.String("sender", bus.Sender))
	}
	if bus.Typed != nil {
		attrs = append(attrs, slog.String("type", fmt.Sprintf("%T", bus.Typed)))
	}
	if bus.Config != nil {
		attrs = append(attrs, slog.Int("configKeys", len(bus.Config)))
	}
	attrs = append(attrs, slog.String("body", helpers.Truncate(string(bus.Body), 256)))
	p.logger.Info("delivery routed", attrs...)
	return bus, nil
}
