package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"postscan/internal/api"
	"postscan/internal/reconcile"
	"postscan/internal/store"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile local scans against the service once",
		Long: `Reconcile local scans against the service once.

By default only pending and processing records are re-fetched. With --full,
the server's record list is paged through first so scans submitted from other
devices are adopted into the local store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			return ctx.withStore(func(st *store.Store) error {
				cred, err := currentCredential(cmd.Context(), st)
				if err != nil {
					return err
				}

				adopted := 0
				if full {
					adopted, err = adoptServerRecords(cmd.Context(), st, client, cred, cfg.Reconcile.PageSize)
					if err != nil {
						return fmt.Errorf("list remote scans: %w", err)
					}
				}

				manager := reconcile.NewManager(st, client, sessionCredentials(st), time.Minute, logger)
				changed, err := manager.RunSweep(cmd.Context())
				if err != nil {
					return err
				}

				if err := st.SetSetting(cmd.Context(), "last_sync", time.Now().UTC().Format(time.RFC3339)); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if full {
					fmt.Fprintf(out, "Adopted %d record(s) from the service\n", adopted)
				}
				fmt.Fprintf(out, "Reconciled: %d record(s) changed\n", changed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Also adopt server records missing locally")
	return cmd
}

// sessionCredentials reads the credential from the store on every sweep so
// the poller observes logins and logouts without restarting.
func sessionCredentials(st *store.Store) reconcile.CredentialSource {
	return func(ctx context.Context) (api.Credential, error) {
		session, err := st.CurrentSession(ctx)
		if err != nil {
			return "", err
		}
		if session == nil || !session.LoggedIn() {
			return "", nil
		}
		return api.Credential(session.Token), nil
	}
}

func adoptServerRecords(ctx context.Context, st *store.Store, client *api.Client, cred api.Credential, pageSize int) (int, error) {
	adopted := 0
	for offset := 0; ; offset += pageSize {
		snapshots, err := client.ListMails(ctx, cred, pageSize, offset)
		if err != nil {
			return adopted, err
		}
		if len(snapshots) == 0 {
			return adopted, nil
		}
		for _, snapshot := range snapshots {
			record, err := snapshot.ToRecord()
			if err != nil {
				continue
			}
			changed, err := st.ApplySnapshot(ctx, record)
			if err != nil {
				return adopted, err
			}
			if changed {
				adopted++
			}
		}
		if len(snapshots) < pageSize {
			return adopted, nil
		}
	}
}
