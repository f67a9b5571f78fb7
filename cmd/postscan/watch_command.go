package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"postscan/internal/logging"
	"postscan/internal/reconcile"
	"postscan/internal/store"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the reconciliation poller until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			// One watcher per data directory; a second instance would
			// double-poll the service for the same records.
			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire watch lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another `postscan watch` is already running for %s", cfg.Paths.DataDir)
			}
			defer func() { _ = lock.Unlock() }()

			return ctx.withStore(func(st *store.Store) error {
				interval := time.Duration(cfg.Reconcile.PollInterval) * time.Second
				manager := reconcile.NewManager(
					st, client, sessionCredentials(st), interval, logger,
					reconcile.WithOnChange(func(changed int) {
						logger.Info("scan statuses updated", logging.Int("changed", changed))
					}),
				)

				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				if err := manager.Start(runCtx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Watching for status updates every %s (Ctrl-C to stop)\n", interval)

				<-runCtx.Done()
				manager.Stop()
				fmt.Fprintln(cmd.OutOrStdout(), "Stopped")
				return nil
			})
		},
	}
}
