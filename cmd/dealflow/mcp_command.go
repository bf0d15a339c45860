package main

import (
	"github.com/spf13/cobra"

	"dealflow/internal/daemonrun"
	"dealflow/internal/mcpserver"
)

func newMCPCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve dealflow tools to an MCP client over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.stderrLogger()
			if err != nil {
				return err
			}
			c, err := daemonrun.Build(cfg, logger, daemonrun.BuildOptions{History: true})
			if err != nil {
				return err
			}
			defer c.Close()
			return mcpserver.Run(c.MCPDependencies(), version, logger)
		},
	}
}
