package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"tte/tracker"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id     TEXT PRIMARY KEY,
	secret TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS users_secret ON users (secret);

CREATE TABLE IF NOT EXISTS projects (
	id       TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	name     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS projects_owner_name ON projects (owner_id, name);

CREATE TABLE IF NOT EXISTS default_projects (
	user_id    TEXT PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
	project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS entries (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
	start_at   INTEGER NOT NULL,
	stop_at    INTEGER
);
CREATE INDEX IF NOT EXISTS entries_running ON entries (project_id) WHERE stop_at IS NULL;
`

// sqliteNow is the statement's current time in unix milliseconds. It is
// evaluated by the database, never by the client.
const sqliteNow = `CAST(unixepoch('subsec') * 1000 AS INTEGER)`

// SQLite is a tracker.Repository over a local SQLite database.
type SQLite struct {
	pool   *Pool
	logger *slog.Logger

	// conn is set on the copy handed to an InTx callback.
	conn *sqlite.Conn
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool, err := OpenPool(PoolConfig{
		Path:   path,
		Logger: logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, sqliteSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tracker.ErrStoreUnavailable, err)
	}
	return &SQLite{pool: pool, logger: logger}, nil
}

func (s *SQLite) Close() error {
	return s.pool.Close()
}

func storeError(op string, err error) error {
	if errors.Is(err, tracker.ErrProjectNotFound) || errors.Is(err, tracker.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", tracker.ErrStoreUnavailable, op, err)
}

func (s *SQLite) withConn(ctx context.Context, op string, fn func(conn *sqlite.Conn) error) error {
	s.logger.Debug("sqlite query", "op", op)
	if s.conn != nil {
		if err := fn(s.conn); err != nil {
			return storeError(op, err)
		}
		return nil
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return storeError(op, err)
	}
	defer s.pool.Put(conn)

	if err := fn(conn); err != nil {
		return storeError(op, err)
	}
	return nil
}

// InTx runs fn inside a BEGIN IMMEDIATE transaction, so a concurrent
// start from another process waits instead of interleaving.
func (s *SQLite) InTx(ctx context.Context, fn func(repo tracker.Repository) error) (err error) {
	if s.conn != nil {
		return fn(s)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return storeError("begin transaction", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return storeError("begin transaction", err)
	}
	defer endTransaction(&err)

	return fn(&SQLite{pool: s.pool, logger: s.logger, conn: conn})
}

func (s *SQLite) FindUserBySecret(ctx context.Context, secret string) (uuid.UUID, bool, error) {
	var raw string
	err := s.withConn(ctx, "find user", func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT id FROM users WHERE secret = ? ORDER BY rowid LIMIT 1`, &sqlitex.ExecOptions{
			Args: []any{secret},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				raw = stmt.ColumnText(0)
				return nil
			},
		})
	})
	if err != nil || raw == "" {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, storeError("find user", err)
	}
	return id, true, nil
}

func (s *SQLite) CreateUser(ctx context.Context, secret string) (uuid.UUID, error) {
	id := uuid.New()
	err := s.withConn(ctx, "create user", func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `INSERT INTO users (id, secret) VALUES (?, ?)`, &sqlitex.ExecOptions{
			Args: []any{id.String(), secret},
		})
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *SQLite) UserExists(ctx context.Context, user uuid.UUID) (bool, error) {
	var exists bool
	err := s.withConn(ctx, "user exists", func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, &sqlitex.ExecOptions{
			Args: []any{user.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				exists = stmt.ColumnInt64(0) != 0
				return nil
			},
		})
	})
	return exists, err
}

func (s *SQLite) ListProjects(ctx context.Context, user uuid.UUID) ([]tracker.Project, error) {
	const query = `
		SELECT p.id, p.name, d.project_id IS NOT NULL
		FROM projects p
		LEFT JOIN default_projects d ON d.project_id = p.id AND d.user_id = p.owner_id
		WHERE p.owner_id = ?
		ORDER BY p.name, p.id`

	var projects []tracker.Project
	err := s.withConn(ctx, "list projects", func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: []any{user.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id, err := uuid.Parse(stmt.ColumnText(0))
				if err != nil {
					return fmt.Errorf("project id: %w", err)
				}
				projects = append(projects, tracker.Project{
					ID:        id,
					Name:      stmt.ColumnText(1),
					IsDefault: stmt.ColumnInt64(2) != 0,
				})
				return nil
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *SQLite) CreateProject(ctx context.Context, user uuid.UUID, name string) (tracker.Project, error) {
	project := tracker.Project{ID: uuid.New(), Name: name}
	err := s.withConn(ctx, "create project", func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `INSERT INTO projects (id, owner_id, name) VALUES (?, ?, ?)`, &sqlitex.ExecOptions{
			Args: []any{project.ID.String(), user.String(), name},
		})
	})
	if err != nil {
		return tracker.Project{}, err
	}
	return project, nil
}

// DeleteProjectsByName relies on ON DELETE CASCADE to drop the projects'
// entries and default designation.
func (s *SQLite) DeleteProjectsByName(ctx context.Context, user uuid.UUID, name string) (int, error) {
	var deleted int
	err := s.withConn(ctx, "delete projects", func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, `DELETE FROM projects WHERE owner_id = ? AND name = ?`, &sqlitex.ExecOptions{
			Args: []any{user.String(), name},
		})
		deleted = conn.Changes()
		return err
	})
	return deleted, err
}

func (s *SQLite) SetDefaultProject(ctx context.Context, user uuid.UUID, name string) (bool, error) {
	const query = `
		INSERT INTO default_projects (user_id, project_id)
		SELECT owner_id, id FROM projects
		WHERE owner_id = ? AND name = ?
		ORDER BY rowid
		LIMIT 1
		ON CONFLICT (user_id) DO UPDATE SET project_id = excluded.project_id`

	var changed int
	err := s.withConn(ctx, "set default project", func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: []any{user.String(), name},
		})
		changed = conn.Changes()
		return err
	})
	return changed > 0, err
}

func (s *SQLite) StopAllActive(ctx context.Context, user uuid.UUID) (int, error) {
	query := `
		UPDATE entries SET stop_at = ` + sqliteNow + `
		WHERE stop_at IS NULL
		AND project_id IN (SELECT id FROM projects WHERE owner_id = ?)`

	var stopped int
	err := s.withConn(ctx, "stop entries", func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: []any{user.String()},
		})
		stopped = conn.Changes()
		return err
	})
	return stopped, err
}

func (s *SQLite) CreateEntry(ctx context.Context, user, project uuid.UUID) (uuid.UUID, error) {
	query := `
		INSERT INTO entries (id, project_id, start_at)
		SELECT ?, id, ` + sqliteNow + ` FROM projects
		WHERE id = ? AND owner_id = ?`

	id := uuid.New()
	err := s.withConn(ctx, "create entry", func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: []any{id.String(), project.String(), user.String()},
		})
		if err != nil {
			return err
		}
		if conn.Changes() == 0 {
			return tracker.ErrProjectNotFound
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *SQLite) ListEntries(ctx context.Context, user uuid.UUID) ([]tracker.Entry, error) {
	query := `
		SELECT e.id, e.start_at, e.stop_at, COALESCE(e.stop_at, ` + sqliteNow + `) - e.start_at, p.name
		FROM entries e
		JOIN projects p ON p.id = e.project_id
		WHERE p.owner_id = ?
		ORDER BY e.seq`

	var entries []tracker.Entry
	err := s.withConn(ctx, "list entries", func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: []any{user.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id, err := uuid.Parse(stmt.ColumnText(0))
				if err != nil {
					return fmt.Errorf("entry id: %w", err)
				}
				entry := tracker.Entry{
					ID:          id,
					Start:       fromMillis(stmt.ColumnInt64(1)),
					Duration:    time.Duration(stmt.ColumnInt64(3)) * time.Millisecond,
					ProjectName: stmt.ColumnText(4),
				}
				if !stmt.ColumnIsNull(2) {
					stop := fromMillis(stmt.ColumnInt64(2))
					entry.Stop = &stop
				}
				entries = append(entries, entry)
				return nil
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
