package cmd

import (
	"context"
	"net/http"
	"strings"

	"github.com/isometry/gh-webhook-stub/internal/config"
	"github.com/isometry/gh-webhook-stub/internal/controllers/aws"
	ghctl "github.com/isometry/gh-webhook-stub/internal/controllers/github"
	"github.com/isometry/gh-webhook-stub/internal/dispatch"
	"github.com/isometry/gh-webhook-stub/internal/router"
	"github.com/isometry/gh-webhook-stub/internal/router/processor"
	"github.com/isometry/gh-webhook-stub/internal/stub"
	"github.com/isometry/gh-webhook-stub/internal/validation"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func cmdReceive() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "receive [flags] [-- command [args...]]",
		Aliases: []string{"r", "dispatch"},
		Short:   "Dispatch an event stub to an action handler (--token) or to the App router (--app)",
		Long: `Dispatch an event stub as a synthetic GitHub delivery.

With --token the delivery is exposed as a workflow run: GITHUB_* variables are exported and the
payload is written to GITHUB_EVENT_PATH. The command given after -- is run as the action; without
one the delivery is routed in-process. With --app and --private-key the delivery is routed in-process
with a GitHub App session.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && cmd.ArgsLenAtDash() != 0 {
				return errors.New("the action command must follow --")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			creds := credentials()
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
			mux := newRouter(awsCtl)

			var action dispatch.ActionHandler
			if len(args) > 0 {
				exec, err := dispatch.NewExecHandler(args)
				if err != nil {
					return err
				}
				exec.Stdout, exec.Stderr = cmd.OutOrStdout(), cmd.ErrOrStderr()
				action = exec
			} else {
				action = router.NewActionRunner(mux,
					router.WithActionSessions(ghCtl),
					router.WithActionLogger(logger))
			}

			receiver, err := dispatch.NewReceiver(
				dispatch.WithLogger(logger.With("component", "receiver")),
				dispatch.WithActionHandler(action),
				dispatch.WithRouter(mux),
				dispatch.WithSessionOpener(ghCtl),
				dispatch.WithWorkspace(config.Receive.Workspace))
			if err != nil {
				return err
			}

			return receiver.Receive(ctx, dispatch.Options{
				Event:       config.Receive.Event,
				PayloadPath: config.Receive.PayloadPath,
				Format:      stub.Format(config.Receive.Format),
				Credentials: creds,
			})
		},
	}

	bindEnvMap(cmd, stubEnvMapString)
	bindEnvMap(cmd, receiveEnvMapString)
	bindEnvMap(cmd, receiveEnvMapBool)
	bindEnvMap(cmd, receiveEnvMapDuration)
	return cmd
}

// newAWSController returns an AWS controller when the run needs one: archiving or an ssm: private key.
func newAWSController(ctx context.Context, creds dispatch.Credentials) (*aws.Controller, error) {
	if !config.Archive.Enabled && !strings.HasPrefix(creds.PrivateKey, ghctl.SSMKeyPrefix) {
		return nil, nil
	}
	logger.Debug("creating AWS controller...")
	awsCtl, err := aws.NewController(ctx,
		aws.WithLogger(logger.With("component", "aws-controller")),
		aws.WithEndpoint(config.Archive.Endpoint))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AWS controller")
	}
	return awsCtl, nil
}

func newGitHubController(awsCtl *aws.Controller) (*ghctl.Controller, error) {
	opts := []ghctl.Option{
		ghctl.WithLogger(logger.With("component", "github-controller")),
		ghctl.WithBaseURL(config.GitHub.BaseURL),
	}
	if awsCtl != nil {
		opts = append(opts, ghctl.WithAWSController(awsCtl))
	}
	ghCtl, err := ghctl.NewController(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GitHub controller")
	}
	return ghCtl, nil
}

func newRouter(awsCtl *aws.Controller) *router.Mux {
	post := []processor.Processor{processor.NewSummaryPostProcessor()}
	if config.Forward.URL != "" {
		post = append(post, processor.NewForwarderPostProcessor(config.Forward.URL,
			processor.WithForwardSecret(validation.NewWebhookSecret(config.GitHub.WebhookSecret)),
			processor.WithHTTPClient(&http.Client{Timeout: config.Forward.Timeout})))
	}
	if config.Archive.Enabled && awsCtl != nil {
		post = append(post, processor.NewS3ArchiverPostProcessor(awsCtl, config.Archive.BucketName,
			processor.WithArchivePrefix(config.Archive.Prefix)))
	}

	mux := router.NewMux(
		router.WithLogger(logger),
		router.WithPreProcessors(processor.NewInstallationPreProcessor(processor.WithConfigName(config.GitHub.ConfigName))),
		router.WithPostProcessors(post...))
	// Route every event through the pre- and post-processors.
	return mux.On(router.AnyEvent)
}
