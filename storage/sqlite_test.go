package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite/sqlitex"

	"tte/tracker"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "tte.db"), nil)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return repo
}

func execSQL(t *testing.T, repo *SQLite, query string, args ...any) {
	t.Helper()
	conn, err := repo.pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	defer repo.pool.Put(conn)
	if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
}

func TestSQLiteUsers(t *testing.T) {
	ctx := context.Background()
	repo := openTestSQLite(t)

	if _, found, err := repo.FindUserBySecret(ctx, "secret"); err != nil || found {
		t.Fatalf("FindUserBySecret on empty db = %v, %v", found, err)
	}
	user, err := repo.CreateUser(ctx, "secret")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	found, ok, err := repo.FindUserBySecret(ctx, "secret")
	if err != nil || !ok || found != user {
		t.Fatalf("FindUserBySecret = %v, %v, %v; want %v", found, ok, err, user)
	}

	if exists, err := repo.UserExists(ctx, user); err != nil || !exists {
		t.Errorf("UserExists(created) = %v, %v", exists, err)
	}
	if exists, err := repo.UserExists(ctx, uuid.New()); err != nil || exists {
		t.Errorf("UserExists(random) = %v, %v", exists, err)
	}
}

func TestSQLiteProjects(t *testing.T) {
	ctx := context.Background()
	repo := openTestSQLite(t)
	user, _ := repo.CreateUser(ctx, "a")
	other, _ := repo.CreateUser(ctx, "b")

	for _, name := range []string{"Work", "Home", "Work"} {
		if _, err := repo.CreateProject(ctx, user, name); err != nil {
			t.Fatalf("CreateProject %s: %v", name, err)
		}
	}
	if _, err := repo.CreateProject(ctx, other, "Work"); err != nil {
		t.Fatalf("CreateProject other: %v", err)
	}

	if ok, err := repo.SetDefaultProject(ctx, user, "Home"); err != nil || !ok {
		t.Fatalf("SetDefaultProject Home = %v, %v", ok, err)
	}
	if ok, err := repo.SetDefaultProject(ctx, user, "Work"); err != nil || !ok {
		t.Fatalf("SetDefaultProject Work = %v, %v", ok, err)
	}
	if ok, err := repo.SetDefaultProject(ctx, user, "Nope"); err != nil || ok {
		t.Fatalf("SetDefaultProject Nope = %v, %v", ok, err)
	}

	projects, err := repo.ListProjects(ctx, user)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("ListProjects returned %d projects, want 3", len(projects))
	}
	defaults := 0
	for _, p := range projects {
		if p.IsDefault {
			defaults++
			if p.Name != "Work" {
				t.Errorf("default is %q, want Work", p.Name)
			}
		}
	}
	if defaults != 1 {
		t.Errorf("%d default projects, want 1", defaults)
	}

	otherProjects, _ := repo.ListProjects(ctx, other)
	if len(otherProjects) != 1 || otherProjects[0].IsDefault {
		t.Errorf("other user's projects = %+v", otherProjects)
	}

	deleted, err := repo.DeleteProjectsByName(ctx, user, "Work")
	if err != nil {
		t.Fatalf("DeleteProjectsByName: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted %d projects, want 2", deleted)
	}
	projects, _ = repo.ListProjects(ctx, user)
	if len(projects) != 1 || projects[0].IsDefault {
		t.Errorf("after delete: %+v", projects)
	}
	if otherProjects, _ := repo.ListProjects(ctx, other); len(otherProjects) != 1 {
		t.Errorf("delete touched another user's projects")
	}
}

func TestSQLiteEntryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestSQLite(t)
	user, _ := repo.CreateUser(ctx, "a")
	work, _ := repo.CreateProject(ctx, user, "Work")

	if stopped, err := repo.StopAllActive(ctx, user); err != nil || stopped != 0 {
		t.Fatalf("StopAllActive on empty = %d, %v", stopped, err)
	}
	first, err := repo.CreateEntry(ctx, user, work.ID)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	// Backdate the entry so the stored duration is measurable.
	backdated := toMillis(time.Now().Add(-90*time.Second - 700*time.Millisecond))
	execSQL(t, repo, `UPDATE entries SET start_at = ? WHERE id = ?`, backdated, first.String())

	entries, err := repo.ListEntries(ctx, user)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 1 || !entries[0].Running() {
		t.Fatalf("entries = %+v", entries)
	}
	if d := entries[0].Duration; d < 90*time.Second || d > 2*time.Minute {
		t.Errorf("running duration = %v, want about 90s", d)
	}

	if stopped, err := repo.StopAllActive(ctx, user); err != nil || stopped != 1 {
		t.Fatalf("StopAllActive = %d, %v", stopped, err)
	}
	if stopped, _ := repo.StopAllActive(ctx, user); stopped != 0 {
		t.Errorf("second StopAllActive = %d, want 0", stopped)
	}
	if _, err := repo.CreateEntry(ctx, user, work.ID); err != nil {
		t.Fatalf("CreateEntry second: %v", err)
	}

	entries, err = repo.ListEntries(ctx, user)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != first || entries[0].Running() || entries[0].Stop.Before(entries[0].Start) {
		t.Errorf("first entry = %+v", entries[0])
	}
	if !entries[1].Running() || entries[1].ProjectName != "Work" {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestSQLiteCreateEntryRejectsForeignProject(t *testing.T) {
	ctx := context.Background()
	repo := openTestSQLite(t)
	alice, _ := repo.CreateUser(ctx, "alice")
	bob, _ := repo.CreateUser(ctx, "bob")
	project, _ := repo.CreateProject(ctx, alice, "Work")

	if _, err := repo.CreateEntry(ctx, bob, project.ID); !errors.Is(err, tracker.ErrProjectNotFound) {
		t.Errorf("CreateEntry on foreign project = %v, want ErrProjectNotFound", err)
	}
}

func TestSQLiteDeletedUserCascades(t *testing.T) {
	ctx := context.Background()
	repo := openTestSQLite(t)
	user, _ := repo.CreateUser(ctx, "a")
	project, _ := repo.CreateProject(ctx, user, "Work")
	if _, err := repo.CreateEntry(ctx, user, project.ID); err != nil {
		t.Fatal(err)
	}

	execSQL(t, repo, `DELETE FROM users WHERE id = ?`, user.String())

	if exists, _ := repo.UserExists(ctx, user); exists {
		t.Error("deleted user still exists")
	}
	if entries, _ := repo.ListEntries(ctx, user); len(entries) != 0 {
		t.Errorf("entries survived user deletion: %+v", entries)
	}
}

func TestSQLiteTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := openTestSQLite(t)
	user, _ := repo.CreateUser(ctx, "a")

	entries := tracker.NewEntries(repo, nil)
	if _, err := repo.CreateProject(ctx, user, "Work"); err != nil {
		t.Fatal(err)
	}
	if _, err := entries.Start(ctx, user, nil); !errors.Is(err, tracker.ErrProjectNotFound) {
		t.Fatalf("Start without default = %v", err)
	}

	name := "Work"
	if _, err := entries.Start(ctx, user, &name); err != nil {
		t.Fatalf("Start Work: %v", err)
	}
	missing := "Missing"
	if _, err := entries.Start(ctx, user, &missing); !errors.Is(err, tracker.ErrProjectNotFound) {
		t.Fatalf("Start Missing = %v", err)
	}

	list, err := repo.ListEntries(ctx, user)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(list) != 1 || !list[0].Running() {
		t.Errorf("failed start should leave the Work entry running: %+v", list)
	}
}

func TestSQLiteStoreErrorsAreWrapped(t *testing.T) {
	repo := openTestSQLite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListProjects(ctx, uuid.New())
	if err != nil && !errors.Is(err, tracker.ErrStoreUnavailable) {
		t.Errorf("ListProjects with cancelled context = %v, want ErrStoreUnavailable", err)
	}
}
