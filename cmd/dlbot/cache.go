package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dlbot/dlbot/internal/cache"
	"github.com/dlbot/dlbot/internal/logging"
	"github.com/dlbot/dlbot/internal/model"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the seen-content caches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newCacheClearCommand(ctx))
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear [NAME]",
		Short: "Clear the seen-videos cache so videos can be re-downloaded",
		Long: "Clears the seen-videos cache for one account, or for every account " +
			"with --all. Live recording history is kept either way.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.loadConfig()
			if err != nil {
				return err
			}

			var targets []model.Account
			switch {
			case all:
				targets = cfg.Accounts
			case len(args) == 1:
				acct, ok := cfg.GetAccount(args[0])
				if !ok {
					return fmt.Errorf("account %q not found", args[0])
				}
				targets = []model.Account{acct}
			default:
				return fmt.Errorf("name an account or pass --all")
			}

			logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
			for _, acct := range targets {
				store := cache.NewStore(acct.Dir(), acct.Name, logger)
				store.Clear()
				fmt.Fprintf(cmd.OutOrStdout(), "cleared videos cache for %q\n", acct.Name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clear caches for every configured account")
	return cmd
}
