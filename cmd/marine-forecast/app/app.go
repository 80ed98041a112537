package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/i474232898/marine-forecast/internal/config"
	"github.com/i474232898/marine-forecast/internal/log"
)

// NewCommand builds the root command. Flags are parsed by cobra and then
// merged with the environment and an optional config file by config.Load.
func NewCommand(ctx context.Context) *cobra.Command {
	defaults := config.NewOptions()
	cmd := &cobra.Command{
		Use:          "marine-forecast",
		Short:        "Publish meteoblue marine forecasts to a SignalK data bus",
		Long:         "marine-forecast fetches meteoblue forecasts for the vessel position, normalizes them to SI units and publishes them as SignalK deltas over MQTT.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := log.Init(opts.Log); err != nil {
				return err
			}
			defer log.Sync()

			opts.Complete()
			if err := opts.Validate(); err != nil {
				log.Error(err, "Invalid configuration")
				return err
			}

			srv, err := NewServer(opts)
			if err != nil {
				log.Error(err, "Failed to build server")
				return err
			}
			return srv.Run(ctx)
		},
	}

	defaults.AddFlags(cmd.Flags())
	return cmd
}
