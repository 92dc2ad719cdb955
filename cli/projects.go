package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tte/report"
	"tte/tracker"
)

func newProjectCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(
		newProjectListCommand(app),
		newProjectAddCommand(app),
		newProjectRemoveCommand(app),
		newProjectDefaultCommand(app),
	)
	return cmd
}

// projectAction runs fn for the authenticated user and then prints the
// project list.
func projectAction(app *App, fn func(cmd *cobra.Command, projects *tracker.Projects, user tracker.UserID, name string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := app.withTimeout(cmd)
		defer cancel()

		user, repo, err := app.authenticate(ctx)
		if err != nil {
			return err
		}
		cmd.SetContext(ctx)
		if err := fn(cmd, tracker.NewProjects(repo, app.logger), user, args[0]); err != nil {
			return err
		}
		return app.printProjects(ctx, repo, user, report.FormatTable)
	}
}

func newProjectListCommand(app *App) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects; the default is marked with (*)",
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
			return app.printProjects(ctx, repo, user, f)
		},
	}
	addFormatFlag(cmd.Flags(), &format)
	return cmd
}

func newProjectAddCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a project",
		Args:  cobra.ExactArgs(1),
		RunE: projectAction(app, func(cmd *cobra.Command, projects *tracker.Projects, user tracker.UserID, name string) error {
			_, err := projects.Add(cmd.Context(), user, name)
			return err
		}),
	}
}

func newProjectRemoveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove every project with this name",
		Args:  cobra.ExactArgs(1),
		RunE: projectAction(app, func(cmd *cobra.Command, projects *tracker.Projects, user tracker.UserID, name string) error {
			removed, err := projects.Remove(cmd.Context(), user, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Stdout, "Deleted %d projects.\n\n", removed)
			return nil
		}),
	}
}

func newProjectDefaultCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "default <name>",
		Short: "Set the project used when start gets no name",
		Args:  cobra.ExactArgs(1),
		RunE: projectAction(app, func(cmd *cobra.Command, projects *tracker.Projects, user tracker.UserID, name string) error {
			found, err := projects.SetDefault(cmd.Context(), user, name)
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintf(app.Stderr, "No project named %q; default unchanged.\n", name)
			}
			return nil
		}),
	}
}
