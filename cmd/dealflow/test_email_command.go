package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dealflow/internal/notifications"
)

const testEmailSubject = "dealflow test email"

func newTestEmailCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-email",
		Short: "Send a test email through the configured transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Email.To == "" || cfg.Email.From == "" {
				return errors.New("email.to and email.from are required")
			}
			logger, err := ctx.stderrLogger()
			if err != nil {
				return err
			}
			sender := notifications.NewSender(cfg, logger)
			if !notifications.Configured(sender) {
				return notifications.ErrNotConfigured
			}
			msg := notifications.Message{
				To:      cfg.Email.To,
				From:    cfg.Email.From,
				Subject: testEmailSubject,
				HTML: fmt.Sprintf("<p>This is a test email from dealflow sent at %s via %s.</p>",
					time.Now().UTC().Format(time.RFC1123), sender.Name()),
			}
			if err := sender.Send(cmd.Context(), msg); err != nil {
				return fmt.Errorf("send test email: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test email sent to %s via %s\n", cfg.Email.To, sender.Name())
			return nil
		},
	}
}
