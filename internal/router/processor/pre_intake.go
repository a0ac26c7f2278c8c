package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/google/go-github/v84/github"
	"github.com/isometry/gh-webhook-stub/internal/delivery"
	"github.com/isometry/gh-webhook-stub/internal/helpers"
	"github.com/pkg/errors"
)

type intakePreProcessor struct {
	logger *slog.Logger
}

// NewIntakePreProcessor returns the Processor opening every chain: it reads the synthetic request
// into a new *Bus and extracts the repository, installation and sender context of the payload.
func NewIntakePreProcessor(opts ...Option) Processor {
	_inst := &intakePreProcessor{logger: helpers.NewNoopLogger()}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *intakePreProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:intake")
}

func (p *intakePreProcessor) Process(ctx context.Context, req any) (*Bus, error) {
	request, ok := req.(*delivery.Request)
	if !ok || request == nil {
		return nil, NewInternalError("invalid request type. expected *delivery.Request got %T", req)
	}

	payload, err := request.Read(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read request payload")
	}
	body, err := request.Body()
	if err != nil {
		return nil, err
	}

	bus := &Bus{
		Request:    request,
		Event:      request.Event(),
		DeliveryID: request.DeliveryID(),
		Body:       body,
	}
	bus.Payload, _ = payload.(map[string]any)
	if bus.Payload == nil {
		p.logger.Debug("payload is not a mapping", slog.String("type", fmt.Sprintf("%T", payload)))
		bus.Payload = map[string]any{}
	}

	bus.Action = lookupString(bus.Payload, "action")
	bus.Sender = lookupString(bus.Payload, "sender", "login")
	bus.InstallationID = lookupInt64(bus.Payload, "installation", "id")
	if fullName := lookupString(bus.Payload, "repository", "full_name"); fullName != "" {
		bus.Repository = &Repository{
			Owner:    lookupString(bus.Payload, "repository", "owner", "login"),
			Name:     lookupString(bus.Payload, "repository", "name"),
			FullName: fullName,
		}
	}

	typed, err := github.ParseWebHook(bus.Event, body)
	if err != nil {
		p.logger.Debug("payload not typed", slog.String("event", bus.Event), slog.Any("error", err))
	} else {
		bus.Typed = typed
	}

	p.logger.Debug("delivery accepted", slog.Any("bus", bus))
	return bus, nil
}

func lookup(v any, path ...string) any {
	for _, key := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[key]
	}
	return v
}

func lookupString(v any, path ...string) string {
	s, _ := lookup(v, path...).(string)
	return s
}

// lookupInt64 accepts the integer shapes produced by both the YAML and the JSON decoders.
func lookupInt64(v any, path ...string) int64 {
	switch n := lookup(v, path...).(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n)
		}
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n <= math.MaxInt64 {
			return int64(n)
		}
	case json.Number:
		i, _ := n.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}
