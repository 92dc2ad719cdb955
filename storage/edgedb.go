package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgedb/edgedb-go"
	"github.com/google/uuid"

	"tte/tracker"
)

// querier is the subset of *edgedb.Client and *edgedb.Tx the repository
// needs.
type querier interface {
	Query(ctx context.Context, cmd string, out interface{}, args ...interface{}) error
	QuerySingle(ctx context.Context, cmd string, out interface{}, args ...interface{}) error
}

// EdgeDB is a tracker.Repository backed by a remote EdgeDB instance. All
// timestamps come from datetime_of_statement().
type EdgeDB struct {
	client *edgedb.Client
	q      querier
	logger *slog.Logger
}

// OpenEdgeDB connects using dsn, or the edgedb-go project/environment
// discovery when dsn is empty.
func OpenEdgeDB(ctx context.Context, dsn string, logger *slog.Logger) (*EdgeDB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		client *edgedb.Client
		err    error
	)
	if dsn == "" {
		client, err = edgedb.CreateClient(ctx, edgedb.Options{})
	} else {
		client, err = edgedb.CreateClientDSN(ctx, dsn, edgedb.Options{})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to edgedb: %w", tracker.ErrStoreUnavailable, err)
	}
	return &EdgeDB{client: client, q: client, logger: logger}, nil
}

func (e *EdgeDB) Close() error {
	return e.client.Close()
}

type edgeID struct {
	ID edgedb.UUID `edgedb:"id"`
}

type edgeProject struct {
	ID        edgedb.UUID `edgedb:"id"`
	Name      string      `edgedb:"name"`
	IsDefault bool        `edgedb:"is_default"`
}

type edgeEntry struct {
	ID          edgedb.UUID             `edgedb:"id"`
	StartAt     time.Time               `edgedb:"start_at"`
	StopAt      edgedb.OptionalDateTime `edgedb:"stop_at"`
	Duration    edgedb.Duration         `edgedb:"duration"`
	ProjectName string                  `edgedb:"project_name"`
}

func (e *EdgeDB) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	e.logger.Debug("edgedb query failed", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %w", tracker.ErrStoreUnavailable, op, err)
}

// InTx runs fn inside an EdgeDB transaction. The client retries the
// block on transaction conflicts, so fn must not have side effects outside
// the store.
func (e *EdgeDB) InTx(ctx context.Context, fn func(repo tracker.Repository) error) error {
	if _, nested := e.q.(*edgedb.Tx); nested {
		return fn(e)
	}

	var fnErr error
	err := e.client.Tx(ctx, func(ctx context.Context, tx *edgedb.Tx) error {
		fnErr = fn(&EdgeDB{client: e.client, q: tx, logger: e.logger})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return e.wrap("transaction", err)
}

func (e *EdgeDB) FindUserBySecret(ctx context.Context, secret string) (uuid.UUID, bool, error) {
	var users []edgeID
	e.logger.Debug("edgedb query", "op", "find user")
	err := e.q.Query(ctx, `SELECT User { id } FILTER .password = <str>$0 LIMIT 1`, &users, secret)
	if err != nil {
		return uuid.Nil, false, e.wrap("find user", err)
	}
	if len(users) == 0 {
		return uuid.Nil, false, nil
	}
	return uuid.UUID(users[0].ID), true, nil
}

func (e *EdgeDB) CreateUser(ctx context.Context, secret string) (uuid.UUID, error) {
	var user edgeID
	e.logger.Debug("edgedb query", "op", "create user")
	err := e.q.QuerySingle(ctx, `SELECT (INSERT User { password := <str>$0 }) { id }`, &user, secret)
	if err != nil {
		return uuid.Nil, e.wrap("create user", err)
	}
	return uuid.UUID(user.ID), nil
}

func (e *EdgeDB) UserExists(ctx context.Context, user uuid.UUID) (bool, error) {
	var exists bool
	e.logger.Debug("edgedb query", "op", "user exists")
	err := e.q.QuerySingle(ctx, `SELECT EXISTS (SELECT User FILTER .id = <uuid>$0)`, &exists, edgedb.UUID(user))
	if err != nil {
		return false, e.wrap("user exists", err)
	}
	return exists, nil
}

func (e *EdgeDB) ListProjects(ctx context.Context, user uuid.UUID) ([]tracker.Project, error) {
	const query = `
		SELECT Project { id, name, is_default := EXISTS .<default_project[IS User] }
		FILTER .owner.id = <uuid>$0
		ORDER BY .name THEN .id`

	var rows []edgeProject
	e.logger.Debug("edgedb query", "op", "list projects")
	if err := e.q.Query(ctx, query, &rows, edgedb.UUID(user)); err != nil {
		return nil, e.wrap("list projects", err)
	}
	projects := make([]tracker.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, tracker.Project{
			ID:        uuid.UUID(row.ID),
			Name:      row.Name,
			IsDefault: row.IsDefault,
		})
	}
	return projects, nil
}

func (e *EdgeDB) CreateProject(ctx context.Context, user uuid.UUID, name string) (tracker.Project, error) {
	const query = `
		SELECT (
			INSERT Project {
				name := <str>$0,
				owner := assert_exists((SELECT User FILTER .id = <uuid>$1))
			}
		) { id, name, is_default := false }`

	var row edgeProject
	e.logger.Debug("edgedb query", "op", "create project")
	if err := e.q.QuerySingle(ctx, query, &row, name, edgedb.UUID(user)); err != nil {
		return tracker.Project{}, e.wrap("create project", err)
	}
	return tracker.Project{ID: uuid.UUID(row.ID), Name: row.Name}, nil
}

func (e *EdgeDB) DeleteProjectsByName(ctx context.Context, user uuid.UUID, name string) (int, error) {
	var deleted int64
	e.logger.Debug("edgedb query", "op", "delete projects")
	err := e.q.QuerySingle(ctx,
		`SELECT count((DELETE Project FILTER .name = <str>$0 AND .owner.id = <uuid>$1))`,
		&deleted, name, edgedb.UUID(user))
	if err != nil {
		return 0, e.wrap("delete projects", err)
	}
	return int(deleted), nil
}

// SetDefaultProject only updates the user when a project matched, so a
// typo keeps the previous default.
func (e *EdgeDB) SetDefaultProject(ctx context.Context, user uuid.UUID, name string) (bool, error) {
	const query = `
		WITH project := (
			SELECT Project
			FILTER .name = <str>$0 AND .owner.id = <uuid>$1
			ORDER BY .id
			LIMIT 1
		)
		SELECT count((
			UPDATE User
			FILTER .id = <uuid>$1 AND EXISTS project
			SET { default_project := project }
		)) > 0`

	var updated bool
	e.logger.Debug("edgedb query", "op", "set default project")
	if err := e.q.QuerySingle(ctx, query, &updated, name, edgedb.UUID(user)); err != nil {
		return false, e.wrap("set default project", err)
	}
	return updated, nil
}

func (e *EdgeDB) StopAllActive(ctx context.Context, user uuid.UUID) (int, error) {
	const query = `
		SELECT count((
			UPDATE Entry
			FILTER .project.owner.id = <uuid>$0 AND NOT EXISTS .stop_at
			SET { stop_at := datetime_of_statement() }
		))`

	var stopped int64
	e.logger.Debug("edgedb query", "op", "stop entries")
	if err := e.q.QuerySingle(ctx, query, &stopped, edgedb.UUID(user)); err != nil {
		return 0, e.wrap("stop entries", err)
	}
	return int(stopped), nil
}

func (e *EdgeDB) CreateEntry(ctx context.Context, user, project uuid.UUID) (uuid.UUID, error) {
	const query = `
		SELECT (
			INSERT Entry {
				start_at := datetime_of_statement(),
				project := assert_exists(
					(SELECT Project FILTER .id = <uuid>$0 AND .owner.id = <uuid>$1),
					message := 'project not found'
				)
			}
		) { id }`

	var row edgeID
	e.logger.Debug("edgedb query", "op", "create entry")
	err := e.q.QuerySingle(ctx, query, &row, edgedb.UUID(project), edgedb.UUID(user))
	if err != nil {
		var edbErr edgedb.Error
		if errors.As(err, &edbErr) && edbErr.Category(edgedb.CardinalityViolationError) {
			return uuid.Nil, tracker.ErrProjectNotFound
		}
		return uuid.Nil, e.wrap("create entry", err)
	}
	return uuid.UUID(row.ID), nil
}

func (e *EdgeDB) ListEntries(ctx context.Context, user uuid.UUID) ([]tracker.Entry, error) {
	const query = `
		SELECT Entry {
			id,
			start_at,
			stop_at,
			duration := (.stop_at ?? datetime_of_statement()) - .start_at,
			project_name := .project.name
		}
		FILTER .project.owner.id = <uuid>$0
		ORDER BY .start_at THEN .id`

	var rows []edgeEntry
	e.logger.Debug("edgedb query", "op", "list entries")
	if err := e.q.Query(ctx, query, &rows, edgedb.UUID(user)); err != nil {
		return nil, e.wrap("list entries", err)
	}
	entries := make([]tracker.Entry, 0, len(rows))
	for _, row := range rows {
		entry := tracker.Entry{
			ID:          uuid.UUID(row.ID),
			Start:       row.StartAt.UTC(),
			Duration:    time.Duration(row.Duration) * time.Microsecond,
			ProjectName: row.ProjectName,
		}
		if stop, ok := row.StopAt.Get(); ok {
			stop = stop.UTC()
			entry.Stop = &stop
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
