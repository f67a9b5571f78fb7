package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"postscan/internal/api"
	"postscan/internal/store"
)

func resolvePassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("POSTSCAN_PASSWORD"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("password required (use --password or the POSTSCAN_PASSWORD environment variable)")
}

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the extraction service",
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := resolvePassword(password)
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			account, err := client.Register(cmd.Context(), username, email, pass)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}

			return ctx.withStore(func(st *store.Store) error {
				session := store.Session{
					UserID:    account.ID,
					Username:  account.Username,
					Email:     account.Email,
					UpdatedAt: time.Now(),
				}
				if err := st.SaveSession(cmd.Context(), session); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s <%s>. Run `postscan login` to sign in.\n",
					account.Username, account.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := resolvePassword(password)
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			cred, err := client.Login(cmd.Context(), email, pass)
			if err != nil {
				if api.IsUnauthorized(err) || api.IsValidation(err) {
					return fmt.Errorf("login rejected: %w", err)
				}
				return fmt.Errorf("login: %w", err)
			}

			return ctx.withStore(func(st *store.Store) error {
				session := store.Session{Email: email, Token: string(cred), UpdatedAt: time.Now()}
				// Keep profile data from a previous session on this device.
				if existing, err := st.CurrentSession(cmd.Context()); err == nil && existing != nil {
					session.UserID = existing.UserID
					if existing.Username != "" {
						session.Username = existing.Username
					}
					if strings.EqualFold(existing.Email, email) && existing.Email != "" {
						session.Email = existing.Email
					}
				}
				if err := st.SaveSession(cmd.Context(), session); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", email)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				if err := st.ClearCredential(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				session, err := st.CurrentSession(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if session == nil {
					fmt.Fprintln(out, "No session on this device")
					return nil
				}
				name := session.Username
				if name == "" {
					name = session.Email
				}
				switch {
				case !session.LoggedIn():
					fmt.Fprintf(out, "%s (logged out)\n", name)
				case api.Credential(session.Token).Expired(time.Now()):
					fmt.Fprintf(out, "%s (session expired; run `postscan login`)\n", name)
				default:
					fmt.Fprintf(out, "%s (logged in)\n", name)
				}
				return nil
			})
		},
	}
}
