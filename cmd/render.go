package cmd

import (
	"slices"

	"github.com/isometry/gh-webhook-stub/internal/config"
	"github.com/isometry/gh-webhook-stub/internal/dispatch"
	"github.com/isometry/gh-webhook-stub/internal/helpers"
	"github.com/isometry/gh-webhook-stub/internal/render"
	"github.com/isometry/gh-webhook-stub/internal/stub"
	"github.com/spf13/cobra"
)

var renderFormat string

var renderEnvMapString = map[*string]boundEnvVar[string]{
	&renderFormat: {
		Name:        "output",
		Description: "Output encoding. Supported values are 'yaml', 'jsonl', 'json', 'api-gateway-v1', 'api-gateway-v2' and 'lambda-url'",
		Short:       helpers.Ptr("o"),
	},
}

func cmdRender() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Resolve an event stub and print the complete delivery",
		Long: `Resolve an event stub exactly as receive would, without credentials or dispatch, and print
the synthetic delivery. yaml and jsonl output can be fed back to receive; the api-gateway-v1,
api-gateway-v2 and lambda-url outputs are Lambda invocation events.`,
		Args: cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if !slices.Contains(render.Formats, render.Format(renderFormat)) {
				return &render.UnsupportedFormatError{Format: render.Format(renderFormat)}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			receiver, err := dispatch.NewReceiver(dispatch.WithLogger(logger.With("component", "receiver")))
			if err != nil {
				return err
			}
			plan, err := receiver.Load(config.Receive.Event, config.Receive.PayloadPath, stub.Format(config.Receive.Format))
			if err != nil {
				return err
			}
			return render.Write(cmd.OutOrStdout(), render.Format(renderFormat), plan.Headers, plan.Payload)
		},
	}

	renderFormat = string(render.FormatYAML)
	bindEnvMap(cmd, stubEnvMapString)
	bindEnvMap(cmd, renderEnvMapString)
	return cmd
}
