package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/dlbot/dlbot/internal/event"
	"github.com/dlbot/dlbot/internal/listener"
	"github.com/dlbot/dlbot/internal/logging"
	"github.com/dlbot/dlbot/internal/notify"
)

const shutdownTimeout = 30 * time.Second

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the listener daemon for all enabled accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context(), ctx)
		},
	}
}

func runDaemon(cmdCtx context.Context, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, path, err := ctx.loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	lock := flock.New(filepath.Join(os.TempDir(), "dlbot.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another dlbot instance is already running")
	}
	defer lock.Unlock()

	if len(cfg.Accounts) == 0 {
		logger.Warn("no accounts configured", logging.String("config", path))
	}

	manager := listener.NewManager(cfg.MaxParallel, logger)
	for _, acct := range cfg.Accounts {
		if _, err := manager.Add(acct); err != nil {
			logger.Error("skipping account", logging.String("account", acct.Name), logging.Error(err))
		}
	}

	notifier := notify.NewService(cfg.Notify.Server, cfg.Notify.Topic)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		consumeEvents(signalCtx, manager.Events(), notifier, logger)
	}()

	manager.StartAll()
	logger.Info("dlbot daemon started",
		logging.Int("accounts", len(manager.Names())),
		logging.String("config", path))

	<-signalCtx.Done()
	logger.Info("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutCancel()
	if err := manager.Shutdown(shutCtx); err != nil {
		logger.Warn("shutdown incomplete", logging.Error(err))
	}
	<-consumerDone
	return nil
}

// consumeEvents is the single consumer of the engine event stream. It mirrors
// events into the log and forwards the user-facing ones to the notifier.
func consumeEvents(ctx context.Context, events <-chan event.Event, notifier notify.Service, logger *slog.Logger) {
	for ev := range events {
		switch ev.Type {
		case event.TypeStatusChanged:
			logger.Info("listener status changed",
				logging.String("account", ev.Account),
				logging.Bool("listening", ev.Listening))
		case event.TypeContentFound:
			logger.Info("content found",
				logging.String("account", ev.Account),
				logging.String("id", ev.ContentID),
				logging.String("title", ev.Title))
			if err := notifier.NotifyContentFound(ctx, ev.Account, ev.Title, ev.IsLive); err != nil {
				logger.Warn("notification failed", logging.Error(err))
			}
		case event.TypeDownloadComplete:
			logger.Info("download complete",
				logging.String("account", ev.Account),
				logging.String("title", ev.Title))
			if err := notifier.NotifyDownloadComplete(ctx, ev.Account, ev.Title); err != nil {
				logger.Warn("notification failed", logging.Error(err))
			}
		case event.TypeDownloadFailed:
			logger.Error("download failed",
				logging.String("account", ev.Account),
				logging.String("title", ev.Title),
				logging.String("reason", ev.Error))
			if err := notifier.NotifyDownloadFailed(ctx, ev.Account, ev.Title, ev.Error); err != nil {
				logger.Warn("notification failed", logging.Error(err))
			}
		}
	}
}
