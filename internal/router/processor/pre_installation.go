package processor

import (
	"context"
	"log/slog"

	"github.com/google/go-github/v84/github"
	ghctl "github.com/isometry/gh-webhook-stub/internal/controllers/github"
	"github.com/isometry/gh-webhook-stub/internal/dispatch"
	"github.com/isometry/gh-webhook-stub/internal/helpers"
	"github.com/pkg/errors"
)

// ClientProvider hands out GitHub clients scoped to an installation or a repository.
// *github.Session of the GitHub controller implements it.
type ClientProvider interface {
	InstallationClient(ctx context.Context, installationID int64) (*github.Client, error)
	RepositoryClient(ctx context.Context, fullName string) (*github.Client, error)
}

type installationPreProcessor struct {
	logger     *slog.Logger
	configName string
}

// WithConfigName sets the installation config file name looked up by the installation pre-processor.
func WithConfigName(name string) Option {
	return func(p Processor) {
		if ip, ok := p.(*installationPreProcessor); ok {
			ip.configName = name
		}
	}
}

// NewInstallationPreProcessor returns a Processor attaching an installation client and the
// installation config of the delivery repository to the *Bus.
// Deliveries routed without a session pass through untouched.
func NewInstallationPreProcessor(opts ...Option) Processor {
	_inst := &installationPreProcessor{logger: helpers.NewNoopLogger(), configName: ghctl.DefaultConfigName}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *installationPreProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:installation")
}

func (p *installationPreProcessor) Process(ctx context.Context, req any) (*Bus, error) {
	bus, err := asBus(req)
	if err != nil {
		return nil, err
	}

	session, ok := dispatch.SessionFromContext(ctx)
	if !ok {
		p.logger.Debug("no session available. skipping installation context")
		return bus, nil
	}
	provider, ok := session.(ClientProvider)
	if !ok {
		return bus, NewInternalError("session %T does not provide GitHub clients", session)
	}

	switch {
	case bus.InstallationID != 0:
		bus.Client, err = provider.InstallationClient(ctx, bus.InstallationID)
	case bus.Repository != nil:
		bus.Client, err = provider.RepositoryClient(ctx, bus.Repository.FullName)
	default:
		p.logger.Debug("delivery names neither an installation nor a repository")
		return bus, nil
	}
	if err != nil {
		return bus, errors.Wrap(err, "failed to get installation client")
	}

	if bus.Repository == nil {
		return bus, nil
	}
	resolver := ghctl.NewConfigResolver(bus.Client, bus.Repository.FullName,
		ghctl.WithConfigLogger(p.logger),
		ghctl.WithCheckout(ghctl.CheckoutFromEnv()))
	if bus.Config, err = resolver.GetConfig(ctx, p.configName, ""); err != nil {
		return bus, err
	}
	p.logger.Debug("installation config loaded", slog.Int("keys", len(bus.Config)))
	return bus, nil
}
