package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"saha.org/internal/i18n"
	"saha.org/internal/panelapi"
	"saha.org/internal/pipeline"
	"saha.org/internal/session"
)

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()
			flow := panelapi.NewLoginFlow(a.client, a.session, a.printer)
			if err := flow.Logout(cmd.Context()); err != nil {
				return commandError("logout", err)
			}
			return a.out.Result(map[string]any{"logged_out": true}, "logged out")
		},
	}
}

// NewVerifyCommand creates the verify command, which asks the backend to
// validate the stored token.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify the stored token with the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if a.session.Expired(cmd.Context()) {
				return denied(a.printer.Text(i18n.SessionExpired))
			}
			resp, err := a.client.Verify(cmd.Context())
			if err != nil {
				var perr *pipeline.Error
				if errors.As(err, &perr) && perr.Kind == pipeline.KindNetworkUnreachable {
					return commandError(perr.Message, nil)
				}
				return denied(err.Error())
			}
			if !resp.Success {
				return denied(a.printer.Text(i18n.InvalidToken))
			}
			u := resp.Data.User
			return a.out.Result(u, fmt.Sprintf("%d %s <%s> section=%s", u.ID, u.FullName(), u.Email, u.Section()))
		},
	}
}

type whoami struct {
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
	Expired   bool      `json:"expired"`
}

// NewWhoamiCommand creates the whoami command. It decodes the stored token
// locally without calling the backend.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the claims of the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			raw, err := a.session.Token(cmd.Context())
			if errors.Is(err, session.ErrNoToken) {
				return denied("not logged in")
			}
			if err != nil {
				return commandError("read token", err)
			}
			claims, err := session.Decode(raw)
			if err != nil {
				return denied(err.Error())
			}
			w := whoami{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt, Expired: a.session.Expired(cmd.Context())}
			return a.out.Result(w, fmt.Sprintf("user %s, expires %s, expired=%t", w.Subject, w.ExpiresAt.Format(time.RFC3339), w.Expired))
		},
	}
}
