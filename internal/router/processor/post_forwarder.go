package processor

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/isometry/gh-webhook-stub/internal/helpers"
	"github.com/isometry/gh-webhook-stub/internal/validation"
	"github.com/pkg/errors"
)

type forwarderPostProcessor struct {
	logger *slog.Logger
	url    string
	secret *validation.WebhookSecret
	client *http.Client
}

// WithForwardSecret signs forwarded deliveries with secret.
func WithForwardSecret(secret *validation.WebhookSecret) Option {
	return func(p Processor) {
		if fp, ok := p.(*forwarderPostProcessor); ok {
			fp.secret = secret
		}
	}
}

// WithHTTPClient sets the client used to forward deliveries.
func WithHTTPClient(client *http.Client) Option {
	return func(p Processor) {
		if fp, ok := p.(*forwarderPostProcessor); ok && client != nil {
			fp.client = client
		}
	}
}

// NewForwarderPostProcessor returns a Processor replaying the synthetic request against url,
// the way GitHub would deliver it to a webhook receiver.
func NewForwarderPostProcessor(url string, opts ...Option) Processor {
	_inst := &forwarderPostProcessor{url: url, logger: helpers.NewNoopLogger(), client: http.DefaultClient}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *forwarderPostProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("post-processor:forwarder")
}

func (p *forwarderPostProcessor) Process(ctx context.Context, req any) (*Bus, error) {
	bus, err := asBus(req)
	if err != nil {
		return nil, err
	}
	if p.url == "" {
		p.logger.Debug("forwarding is disabled")
		return bus, nil
	}

	httpReq, err := bus.Request.HTTPRequest(ctx, p.url)
	if err != nil {
		return bus, err
	}
	if p.secret != nil {
		httpReq.Header.Set(validation.SignatureHeader, p.secret.Sign(bus.Body))
	}

	p.logger.Debug("forwarding delivery...", slog.String("url", p.url), slog.Bool("signed", p.secret != nil))
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return bus, errors.Wrapf(err, "failed to forward delivery to %s", p.url)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	bus.Forwarded = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return bus, &ForwardError{URL: p.url, StatusCode: resp.StatusCode}
	}
	p.logger.Info("delivery forwarded", slog.String("url", p.url), slog.Int("statusCode", resp.StatusCode))
	return bus, nil
}
