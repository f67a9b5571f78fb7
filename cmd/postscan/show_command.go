package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"postscan/internal/store"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Display one scan record in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				rec, err := st.GetScan(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("no scan with id %q in the local store", args[0])
				}

				rows := [][]string{
					{"ID", rec.ID},
					{"Status", string(rec.Status)},
					{"Submitted", formatTimestamp(rec.CreatedAt)},
					{"Updated", formatTimestamp(rec.UpdatedAt)},
					{"Image", valueOr(rec.ImagePath, rec.ImageURL)},
				}
				if rec.Status == store.StatusProcessed {
					rows = append(rows,
						[]string{"Sender", rec.SenderName},
						[]string{"Sender address", joinAddress(rec.SenderAddress, rec.SenderPincode)},
						[]string{"Receiver", rec.ReceiverName},
						[]string{"Receiver address", joinAddress(rec.ReceiverAddress, rec.ReceiverPincode)},
						[]string{"Sorting center", rec.SortingCenter},
					)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable([]string{"FIELD", "VALUE"}, rows))
				if raw && rec.RawPayload != "" {
					fmt.Fprintln(out, rec.RawPayload)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Also print the last raw server payload")
	return cmd
}

func valueOr(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

func joinAddress(address, pincode string) string {
	switch {
	case address == "":
		return pincode
	case pincode == "":
		return address
	default:
		return address + ", " + pincode
	}
}
