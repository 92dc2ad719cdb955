package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotLoggedIn      = errors.New("not logged in")
	ErrAccountDeleted   = errors.New("account deleted")
	ErrProjectNotFound  = errors.New("project not found")
	ErrAmbiguousProject = errors.New("multiple projects match")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrConfigIO         = errors.New("config i/o")
	ErrInvalidName      = errors.New("invalid project name")
)

type (
	UserID    = uuid.UUID
	ProjectID = uuid.UUID
	EntryID   = uuid.UUID
)

// Project is a named bucket of entries owned by one user.
type Project struct {
	ID        ProjectID
	Name      string
	IsDefault bool
}

// Entry is a timed work session. Stop is nil while the entry is running.
// Duration is computed by the store against its own clock.
type Entry struct {
	ID          EntryID
	Start       time.Time
	Stop        *time.Time
	Duration    time.Duration
	ProjectName string
}

// Running reports whether the entry has no stop timestamp.
func (e Entry) Running() bool {
	return e.Stop == nil
}

// Repository is the only I/O boundary to durable data. Every method is
// scoped to the given user; implementations must never return another
// user's projects or entries.
type Repository interface {
	FindUserBySecret(ctx context.Context, secret string) (UserID, bool, error)
	CreateUser(ctx context.Context, secret string) (UserID, error)
	UserExists(ctx context.Context, user UserID) (bool, error)

	ListProjects(ctx context.Context, user UserID) ([]Project, error)
	CreateProject(ctx context.Context, user UserID, name string) (Project, error)
	DeleteProjectsByName(ctx context.Context, user UserID, name string) (int, error)
	// SetDefaultProject reports false when no project matched, in which
	// case the previous default is left in place.
	SetDefaultProject(ctx context.Context, user UserID, name string) (bool, error)

	// StopAllActive stamps the store's current time on every running entry
	// and returns how many were stopped.
	StopAllActive(ctx context.Context, user UserID) (int, error)
	// CreateEntry starts a running entry with the store's current time.
	CreateEntry(ctx context.Context, user UserID, project ProjectID) (EntryID, error)
	ListEntries(ctx context.Context, user UserID) ([]Entry, error)
}

// Transactor is implemented by repositories that can run several calls
// inside one store transaction. If fn returns an error the transaction is
// rolled back.
type Transactor interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
}
