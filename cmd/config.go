package cmd

import (
	"github.com/isometry/gh-webhook-stub/internal/config"
	ghctl "github.com/isometry/gh-webhook-stub/internal/controllers/github"
	"github.com/isometry/gh-webhook-stub/internal/dispatch"
	"github.com/isometry/gh-webhook-stub/internal/helpers"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var configRepository, configRef, configCheckout string

var configEnvMapString = map[*string]boundEnvVar[string]{
	&configRepository: {
		Name:        "repository",
		Description: "owner/name of the repository holding the installation config",
		Env:         helpers.Ptr("GITHUB_REPOSITORY"),
		Short:       helpers.Ptr("r"),
	},
	&configRef: {
		Name:        "ref",
		Description: "Git ref to read the installation config at. Forces the contents API",
	},
	&configCheckout: {
		Name:        "checkout",
		Description: "Local checkout to read the installation config from (default GITHUB_WORKSPACE inside a workflow run)",
	},
}

func cmdConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [name]",
		Short: "Print the installation config of a repository",
		Long: `Print the installation config (.github/<name>) the router resolves for a repository.
The file is read from the checkout unless a ref is given; otherwise it is fetched with the
contents API using --token, or --app and --private-key. A missing file prints an empty mapping.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := config.GitHub.ConfigName
			if len(args) == 1 {
				name = args[0]
			}

			opts := []ghctl.ConfigOption{ghctl.WithConfigLogger(logger.With("component", "config-resolver"))}
			if configCheckout != "" {
				opts = append(opts, ghctl.WithCheckout(configCheckout))
			}

			resolver := ghctl.NewConfigResolver(nil, configRepository, opts...)
			creds := credentials()
			needsAPI := configCheckout == "" || configRef != ""
			if needsAPI && (creds.Token != "" || creds.AppID != 0) {
				if err := creds.Validate(); err != nil {
					return err
				}
				awsCtl, err := newAWSController(ctx, creds)
				if err != nil {
					return err
				}
				ghCtl, err := newGitHubController(awsCtl)
				if err != nil {
					return err
				}
				session, err := ghCtl.OpenSession(ctx, creds)
				if err != nil {
					return err
				}
				defer func() { _ = session.Close() }()
				ghSession, ok := session.(*ghctl.Session)
				if !ok {
					return errors.Errorf("unexpected session type %T", session)
				}
				client, err := ghSession.RepositoryClient(ctx, configRepository)
				if err != nil {
					return errors.Wrap(err, "failed to get repository client")
				}
				resolver = ghctl.NewConfigResolver(client, configRepository, opts...)
			}

			content, err := resolver.GetConfig(ctx, name, configRef)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err = enc.Encode(content); err != nil {
				return errors.Wrap(err, "failed to encode installation config")
			}
			return enc.Close()
		},
	}

	configCheckout = ghctl.CheckoutFromEnv()
	bindEnvMap(cmd, configEnvMapString)
	return cmd
}

func credentials() dispatch.Credentials {
	return dispatch.Credentials{
		Token:      config.GitHub.Token,
		AppID:      config.GitHub.AppID,
		PrivateKey: config.GitHub.PrivateKey,
	}
}
