package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dlbot/dlbot/internal/model"
)

func newAccountsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage monitored accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newAccountsListCommand(ctx))
	cmd.AddCommand(newAccountsAddCommand(ctx))
	cmd.AddCommand(newAccountsRemoveCommand(ctx))
	cmd.AddCommand(newAccountsEnableCommand(ctx, true))
	cmd.AddCommand(newAccountsEnableCommand(ctx, false))
	return cmd
}

func newAccountsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			if len(cfg.Accounts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no accounts configured")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPLATFORM\tENABLED\tVIDEOS\tLIVES\tINTERVAL\tURL")
			for _, a := range cfg.Accounts {
				fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%t\t%s\t%s\n",
					a.Name, a.Platform, a.Enabled,
					a.AutoDownloadVideos, a.AutoDownloadLives,
					a.Interval(), a.URL)
			}
			return w.Flush()
		},
	}
}

func newAccountsAddCommand(ctx *commandContext) *cobra.Command {
	var acct model.Account
	var platformFlag string

	cmd := &cobra.Command{
		Use:   "add NAME URL",
		Short: "Add an account to monitor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := ctx.loadConfig()
			if err != nil {
				return err
			}

			acct.Name = args[0]
			acct.URL = args[1]
			if platformFlag != "" {
				p, err := model.ParsePlatform(platformFlag)
				if err != nil {
					return err
				}
				acct.Platform = p
			}
			if err := cfg.AddAccount(acct); err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added account %q\n", acct.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&platformFlag, "platform", "", "Platform tag (youtube or bilibili, detected from URL when omitted)")
	cmd.Flags().StringVar(&acct.DownloadDir, "download-dir", "", "Download directory (defaults to the global one)")
	cmd.Flags().IntVar(&acct.CheckInterval, "interval", 0, "Poll interval in seconds (defaults to the global one)")
	cmd.Flags().BoolVar(&acct.Enabled, "enabled", true, "Start listening for this account on daemon start")
	cmd.Flags().BoolVar(&acct.AutoDownloadVideos, "videos", true, "Auto-download new videos")
	cmd.Flags().BoolVar(&acct.AutoDownloadLives, "lives", false, "Auto-download new live recordings")
	cmd.Flags().IntVar(&acct.VideosFetchCount, "videos-fetch-count", 3, "How many recent videos to inspect per cycle (1-5)")
	cmd.Flags().IntVar(&acct.LivesFetchCount, "lives-fetch-count", 3, "How many recent live recordings to inspect per cycle (1-5)")
	cmd.Flags().StringVar(&acct.BilibiliCookie, "bilibili-cookie", "", "SESSDATA cookie for Bilibili feed access")
	return cmd
}

func newAccountsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.RemoveAccount(args[0]) {
				return fmt.Errorf("account %q not found", args[0])
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed account %q\n", args[0])
			return nil
		},
	}
}

func newAccountsEnableCommand(ctx *commandContext, enable bool) *cobra.Command {
	use, short := "enable NAME", "Enable an account"
	if !enable {
		use, short = "disable NAME", "Disable an account"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			acct, ok := cfg.GetAccount(args[0])
			if !ok {
				return fmt.Errorf("account %q not found", args[0])
			}
			acct.Enabled = enable
			cfg.UpdateAccount(acct)
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %q enabled=%t\n", acct.Name, enable)
			return nil
		},
	}
}
