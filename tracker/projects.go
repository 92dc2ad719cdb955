package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Projects resolves and manages a user's projects.
type Projects struct {
	repo   Repository
	logger *slog.Logger
}

func NewProjects(repo Repository, logger *slog.Logger) *Projects {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Projects{repo: repo, logger: logger}
}

// Resolve turns an optional project name into exactly one of the user's
// projects. A nil name selects the default project.
func (p *Projects) Resolve(ctx context.Context, user UserID, name *string) (Project, error) {
	projects, err := p.repo.ListProjects(ctx, user)
	if err != nil {
		return Project{}, fmt.Errorf("resolve project: %w", err)
	}
	return ResolveProject(projects, name)
}

// ResolveProject picks the single project matching name, or the single
// default when name is nil. It never chooses between several candidates.
func ResolveProject(projects []Project, name *string) (Project, error) {
	var matches []Project
	for _, project := range projects {
		if name != nil && project.Name == *name {
			matches = append(matches, project)
		}
		if name == nil && project.IsDefault {
			matches = append(matches, project)
		}
	}

	switch {
	case len(matches) == 1:
		return matches[0], nil
	case len(matches) == 0 && name != nil:
		return Project{}, fmt.Errorf("%w: %q", ErrProjectNotFound, *name)
	case len(matches) == 0:
		return Project{}, fmt.Errorf("%w: no default project set", ErrProjectNotFound)
	case name != nil:
		return Project{}, fmt.Errorf("%w: %d projects named %q", ErrAmbiguousProject, len(matches), *name)
	default:
		return Project{}, fmt.Errorf("%w: %d default projects", ErrAmbiguousProject, len(matches))
	}
}

// List returns the user's projects ordered by name, then id.
func (p *Projects) List(ctx context.Context, user UserID) ([]Project, error) {
	projects, err := p.repo.ListProjects(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].Name != projects[j].Name {
			return projects[i].Name < projects[j].Name
		}
		return projects[i].ID.String() < projects[j].ID.String()
	})
	return projects, nil
}

// Add creates a project. Duplicate names are allowed; Resolve reports them
// as ambiguous.
func (p *Projects) Add(ctx context.Context, user UserID, name string) (Project, error) {
	if strings.TrimSpace(name) == "" {
		return Project{}, fmt.Errorf("%w: name must not be empty", ErrInvalidName)
	}
	project, err := p.repo.CreateProject(ctx, user, name)
	if err != nil {
		return Project{}, fmt.Errorf("add project: %w", err)
	}
	p.logger.Info("project added", "project", project.ID, "name", name)
	return project, nil
}

// Remove deletes every project of the user named name.
func (p *Projects) Remove(ctx context.Context, user UserID, name string) (int, error) {
	removed, err := p.repo.DeleteProjectsByName(ctx, user, name)
	if err != nil {
		return 0, fmt.Errorf("remove project: %w", err)
	}
	p.logger.Info("projects removed", "name", name, "count", removed)
	return removed, nil
}

// SetDefault makes the named project the user's only default. It reports
// false when nothing matched.
func (p *Projects) SetDefault(ctx context.Context, user UserID, name string) (bool, error) {
	found, err := p.repo.SetDefaultProject(ctx, user, name)
	if err != nil {
		return false, fmt.Errorf("set default project: %w", err)
	}
	if !found {
		p.logger.Warn("no project to mark default", "name", name)
	}
	return found, nil
}
