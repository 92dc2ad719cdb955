package cli

import (
	"github.com/spf13/cobra"

	"tte/report"
)

func newStartCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start [project]",
		Short: "Stop the running entry and start a new one",
		Long:  "start stops whatever is running and starts an entry on the named project, or on the default project when no name is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.withTimeout(cmd)
			defer cancel()

			user, repo, err := app.authenticate(ctx)
			if err != nil {
				return err
			}
			var name *string
			if len(args) == 1 {
				name = &args[0]
			}
			if _, err := app.entries(repo).Start(ctx, user, name); err != nil {
				return err
			}
			return app.printEntries(ctx, repo, user, report.FormatTable)
		},
	}
}

func newStopCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := app.withTimeout(cmd)
			defer cancel()

			user, repo, err := app.authenticate(ctx)
			if err != nil {
				return err
			}
			if _, err := app.entries(repo).StopActive(ctx, user); err != nil {
				return err
			}
			return app.printEntries(ctx, repo, user, report.FormatTable)
		},
	}
}

func newListCommand(app *App) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			ctx, cancel := app.withTimeout(cmd)
			defer cancel()

			user, repo, err := app.authenticate(ctx)
			if err != nil {
				return err
			}
			return app.printEntries(ctx, repo, user, f)
		},
	}
	addFormatFlag(cmd.Flags(), &format)
	return cmd
}
