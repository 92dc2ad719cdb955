package cli

import (
	"context"

	"github.com/spf13/cobra"

	"tte/tracker"
	"tte/tui"
)

// Launch runs the interactive dashboard. Tests replace it.
var Launch = tui.LaunchTUI

func newDashboardCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Open the live dashboard",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			authCtx, cancel := app.withTimeout(cmd)
			user, repo, err := app.authenticate(authCtx)
			cancel()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return Launch(ctx, tui.Source{
				User:     user,
				Entries:  app.entries(repo),
				Projects: tracker.NewProjects(repo, app.logger),
				Timeout:  app.settings.Timeout,
			})
		},
	}
}
