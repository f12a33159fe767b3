package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dlbot/dlbot/internal/notify"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to the configured ntfy topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Notify.Topic == "" {
				return fmt.Errorf("no ntfy topic configured")
			}
			notifier := notify.NewService(cfg.Notify.Server, cfg.Notify.Topic)
			if err := notifier.TestNotification(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "notification sent")
			return nil
		},
	}
}
