package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tte/tracker"
)

func newLoginCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login <secret>",
		Short: "Log in, creating an account for an unknown secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.withTimeout(cmd)
			defer cancel()

			sess, err := app.session.Load()
			if err != nil {
				return err
			}
			repo, err := app.repository(ctx)
			if err != nil {
				return err
			}
			if _, err := tracker.NewSessions(repo, app.logger).Login(ctx, &sess, args[0]); err != nil {
				return err
			}
			if err := app.session.Save(sess); err != nil {
				return err
			}
			fmt.Fprintln(app.Stdout, "Successfully logged in.")
			return nil
		},
	}
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.session.Load()
			if err != nil {
				return err
			}
			tracker.NewSessions(nil, app.logger).Logout(&sess)
			return app.session.Save(sess)
		},
	}
}
