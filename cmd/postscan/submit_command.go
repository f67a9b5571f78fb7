package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"postscan/internal/store"
	"postscan/internal/submit"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <image>",
		Short: "Upload a letter image and queue it for extraction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			return ctx.withStore(func(st *store.Store) error {
				cred, err := currentCredential(cmd.Context(), st)
				if err != nil {
					return err
				}

				orchestrator := submit.New(client, logger)
				record, err := orchestrator.Submit(cmd.Context(), args[0], cred)
				if err != nil {
					return submitFailure(st, cmd, err)
				}

				// The orchestrator has no store access; persisting the
				// returned record is this command's job.
				if err := st.SaveScan(cmd.Context(), record); err != nil {
					return fmt.Errorf("persist scan record: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Submitted scan %s (status: %s)\n", record.ID, record.Status)
				fmt.Fprintln(out, "Track progress with `postscan history` or `postscan watch`.")
				return nil
			})
		},
	}
}

// submitFailure maps a tagged submission error onto user-facing copy. Every
// retryable kind points at rerunning submit, which restarts the full
// three-step sequence; upload slots are single-use, so there is no resume.
func submitFailure(st *store.Store, cmd *cobra.Command, err error) error {
	var submitErr *submit.Error
	if !errors.As(err, &submitErr) {
		return err
	}
	switch submitErr.Kind {
	case submit.KindConnectivity:
		return fmt.Errorf("no internet connection; check your network and rerun `postscan submit`")
	case submit.KindTimeout:
		return fmt.Errorf("the service did not respond in time; rerun `postscan submit` to retry")
	case submit.KindUnauthorized:
		// The stored credential is invalid; clear it so the next command
		// prompts for a fresh login instead of failing the same way.
		_ = st.ClearCredential(cmd.Context())
		return fmt.Errorf("session rejected by the service; run `postscan login` and resubmit")
	case submit.KindValidation:
		return fmt.Errorf("the service rejected the submission: %v", submitErr.Err)
	default:
		return fmt.Errorf("submission failed (%v); rerun `postscan submit` to retry from the start", submitErr)
	}
}
