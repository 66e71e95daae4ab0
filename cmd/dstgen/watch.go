package main

import (
	"github.com/spf13/cobra"

	"github.com/edvin/dstgen/internal/setup"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the cluster whenever the description changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.generate(); err != nil {
				a.logger.Error().Err(err).Msg("initial generate failed")
			}
			return setup.Watch(cmd.Context(), a.opts.ConfigFile, a.logger, a.generate)
		},
	}
}
