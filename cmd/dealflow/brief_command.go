package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dealflow/internal/callprep"
	"dealflow/internal/daemonrun"
)

func newBriefCommand(ctx *commandContext) *cobra.Command {
	var name, company, htmlOut string

	cmd := &cobra.Command{
		Use:   "brief <contact-id>",
		Short: "Prepare a call brief for a HubSpot contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireHubSpot(); err != nil {
				return err
			}
			c, err := ctx.components(daemonrun.BuildOptions{})
			if err != nil {
				return err
			}
			defer c.Close()

			brief, err := c.CallPrep.Prepare(cmd.Context(), callprep.Request{
				ContactID: args[0],
				Name:      name,
				Company:   company,
			})
			if err != nil {
				return err
			}
			if htmlOut != "" {
				if err := os.WriteFile(htmlOut, []byte(brief.BriefHTML), 0o644); err != nil {
					return fmt.Errorf("write brief: %w", err)
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, brief)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, brief.BriefText)
			if brief.Error != "" {
				fmt.Fprintf(out, "\nWarning: fallback brief used (%s)\n", brief.Error)
			}
			if htmlOut != "" {
				fmt.Fprintf(out, "HTML brief written to %s\n", htmlOut)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Override the contact name")
	cmd.Flags().StringVar(&company, "company", "", "Override the company used for web search")
	cmd.Flags().StringVar(&htmlOut, "html", "", "Also write the HTML brief to this file")
	return cmd
}
