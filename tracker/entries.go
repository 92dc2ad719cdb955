package tracker

import (
	"context"
	"fmt"
	"log/slog"
)

// Entries drives the running/stopped lifecycle of a user's entries.
//
// Start is stop-all followed by create. Against a repository without
// transactions, or with Atomic unset, two concurrent invocations for the
// same user can leave more than one running entry, and a failed resolution
// leaves nothing running.
type Entries struct {
	repo   Repository
	logger *slog.Logger

	// Atomic runs Start inside one store transaction when the repository
	// implements Transactor.
	Atomic bool
}

func NewEntries(repo Repository, logger *slog.Logger) *Entries {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Entries{repo: repo, logger: logger, Atomic: true}
}

// StopActive stops every running entry of the user. Zero running entries
// is not an error.
func (e *Entries) StopActive(ctx context.Context, user UserID) (int, error) {
	return stopActive(ctx, e.repo, e.logger, user)
}

// Start stops whatever is running, resolves the project and starts a new
// entry on it. A nil name selects the default project.
func (e *Entries) Start(ctx context.Context, user UserID, name *string) (Project, error) {
	if tx, ok := e.repo.(Transactor); ok && e.Atomic {
		var project Project
		err := tx.InTx(ctx, func(repo Repository) error {
			var err error
			project, err = start(ctx, repo, e.logger, user, name)
			return err
		})
		if err != nil {
			return Project{}, err
		}
		return project, nil
	}
	return start(ctx, e.repo, e.logger, user, name)
}

// List returns the user's entries in store order.
func (e *Entries) List(ctx context.Context, user UserID) ([]Entry, error) {
	entries, err := e.repo.ListEntries(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

func start(ctx context.Context, repo Repository, logger *slog.Logger, user UserID, name *string) (Project, error) {
	if _, err := stopActive(ctx, repo, logger, user); err != nil {
		return Project{}, err
	}

	projects, err := repo.ListProjects(ctx, user)
	if err != nil {
		return Project{}, fmt.Errorf("start: %w", err)
	}
	project, err := ResolveProject(projects, name)
	if err != nil {
		return Project{}, err
	}

	id, err := repo.CreateEntry(ctx, user, project.ID)
	if err != nil {
		return Project{}, fmt.Errorf("start: %w", err)
	}
	logger.Info("entry started", "entry", id, "project", project.Name)
	return project, nil
}

func stopActive(ctx context.Context, repo Repository, logger *slog.Logger, user UserID) (int, error) {
	stopped, err := repo.StopAllActive(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("stop: %w", err)
	}
	if stopped > 0 {
		logger.Info("entries stopped", "count", stopped)
	}
	return stopped, nil
}
