package main

import (
	"github.com/spf13/cobra"

	"github.com/dlbot/dlbot/internal/config"
)

type commandContext struct {
	configFlag *string
}

func (c *commandContext) configPath() (string, error) {
	if c.configFlag != nil && *c.configFlag != "" {
		return *c.configFlag, nil
	}
	return config.DefaultPath()
}

func (c *commandContext) loadConfig() (*config.Config, string, error) {
	path, err := c.configPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "dlbot",
		Short:         "Monitor creator accounts and auto-download new videos and live recordings",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newAccountsCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
