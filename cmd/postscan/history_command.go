package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"postscan/internal/history"
	"postscan/internal/store"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var sortFlag, filterFlag string
	var asJSON, remote bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List scans from the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			sortKey, err := history.ParseSortKey(sortFlag)
			if err != nil {
				return err
			}
			filter, err := history.ParseFilter(filterFlag)
			if err != nil {
				return err
			}

			return ctx.withStore(func(st *store.Store) error {
				if remote {
					if err := refreshFromService(cmd, ctx, st); err != nil {
						return err
					}
				}

				records, err := st.ListScans(cmd.Context())
				if err != nil {
					return err
				}
				projected := history.Project(records, sortKey, filter)

				out := cmd.OutOrStdout()
				if asJSON {
					encoder := json.NewEncoder(out)
					encoder.SetIndent("", "  ")
					return encoder.Encode(projected)
				}

				if len(projected) == 0 {
					fmt.Fprintln(out, "No scans match")
					return nil
				}

				rows := make([][]string, 0, len(projected))
				for _, rec := range projected {
					rows = append(rows, []string{
						rec.ID,
						string(rec.Status),
						formatTimestamp(rec.CreatedAt),
						rec.SenderName,
						rec.ReceiverName,
					})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "STATUS", "SUBMITTED", "SENDER", "RECEIVER"}, rows))
				// The count reflects the filtered set, not the whole store.
				fmt.Fprintf(out, "%d scan(s)\n", len(projected))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sortFlag, "sort", "newest", "Sort order: newest, oldest, or status")
	cmd.Flags().StringVar(&filterFlag, "filter", "all", "Filter: all, processed, active, or failed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	cmd.Flags().BoolVar(&remote, "remote", false, "Adopt the server's record list before rendering")
	return cmd
}

func refreshFromService(cmd *cobra.Command, ctx *commandContext, st *store.Store) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	client, err := ctx.apiClient()
	if err != nil {
		return err
	}
	cred, err := currentCredential(cmd.Context(), st)
	if err != nil {
		return err
	}
	if _, err := adoptServerRecords(cmd.Context(), st, client, cred, cfg.Reconcile.PageSize); err != nil {
		return fmt.Errorf("refresh from service: %w", err)
	}
	return nil
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}
