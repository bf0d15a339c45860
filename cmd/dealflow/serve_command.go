package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dealflow/internal/daemonrun"
	"dealflow/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and daily reminder scheduler in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg, logger)
		},
	}
}
