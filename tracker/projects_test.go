package tracker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"tte/tracker"
	"tte/tracker/trackertest"
)

func strPtr(s string) *string { return &s }

func TestResolveProject(t *testing.T) {
	a := tracker.Project{ID: uuid.New(), Name: "A", IsDefault: true}
	b := tracker.Project{ID: uuid.New(), Name: "B"}
	x1 := tracker.Project{ID: uuid.New(), Name: "X"}
	x2 := tracker.Project{ID: uuid.New(), Name: "X"}

	tests := []struct {
		name     string
		projects []tracker.Project
		arg      *string
		want     tracker.Project
		wantErr  error
	}{
		{"default", []tracker.Project{a, b}, nil, a, nil},
		{"by name", []tracker.Project{a, b}, strPtr("B"), b, nil},
		{"explicit default by name", []tracker.Project{a, b}, strPtr("A"), a, nil},
		{"unknown name", []tracker.Project{a, b}, strPtr("C"), tracker.Project{}, tracker.ErrProjectNotFound},
		{"no default", []tracker.Project{b}, nil, tracker.Project{}, tracker.ErrProjectNotFound},
		{"no projects", nil, nil, tracker.Project{}, tracker.ErrProjectNotFound},
		{"duplicate names", []tracker.Project{a, x1, x2}, strPtr("X"), tracker.Project{}, tracker.ErrAmbiguousProject},
		{"name is case sensitive", []tracker.Project{a, b}, strPtr("b"), tracker.Project{}, tracker.ErrProjectNotFound},
		{
			"two defaults",
			[]tracker.Project{a, {ID: uuid.New(), Name: "D", IsDefault: true}},
			nil,
			tracker.Project{},
			tracker.ErrAmbiguousProject,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tracker.ResolveProject(tt.projects, tt.arg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ResolveProject error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveProject = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestProjectsAreScopedToOwner(t *testing.T) {
	ctx := context.Background()
	repo := trackertest.NewMemory()
	projects := tracker.NewProjects(repo, nil)

	alice, _ := repo.CreateUser(ctx, "alice")
	bob, _ := repo.CreateUser(ctx, "bob")

	if _, err := projects.Add(ctx, alice, "Work"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if found, err := projects.SetDefault(ctx, alice, "Work"); err != nil || !found {
		t.Fatalf("SetDefault = %v, %v", found, err)
	}

	if _, err := projects.Resolve(ctx, bob, strPtr("Work")); !errors.Is(err, tracker.ErrProjectNotFound) {
		t.Errorf("bob resolved alice's project: %v", err)
	}
	if _, err := projects.Resolve(ctx, bob, nil); !errors.Is(err, tracker.ErrProjectNotFound) {
		t.Errorf("bob resolved alice's default: %v", err)
	}
	if found, _ := projects.SetDefault(ctx, bob, "Work"); found {
		t.Error("bob marked alice's project as default")
	}
	if removed, _ := projects.Remove(ctx, bob, "Work"); removed != 0 {
		t.Errorf("bob removed %d of alice's projects", removed)
	}

	list, err := projects.List(ctx, alice)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || !list[0].IsDefault {
		t.Errorf("alice's projects = %+v", list)
	}
}

func TestSetDefaultReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	repo := trackertest.NewMemory()
	projects := tracker.NewProjects(repo, nil)
	user, _ := repo.CreateUser(ctx, "secret")

	for _, name := range []string{"B", "A"} {
		if _, err := projects.Add(ctx, user, name); err != nil {
			t.Fatalf("Add %s: %v", name, err)
		}
	}
	projects.SetDefault(ctx, user, "A")
	projects.SetDefault(ctx, user, "B")

	found, err := projects.SetDefault(ctx, user, "missing")
	if err != nil {
		t.Fatalf("SetDefault missing: %v", err)
	}
	if found {
		t.Error("SetDefault reported a match for a missing project")
	}

	list, err := projects.List(ctx, user)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "A" || list[1].Name != "B" {
		t.Fatalf("List order = %+v, want A then B", list)
	}
	if list[0].IsDefault || !list[1].IsDefault {
		t.Errorf("default flags = %v/%v, want false/true", list[0].IsDefault, list[1].IsDefault)
	}
}

func TestAddAllowsDuplicatesAndRemoveCountsThem(t *testing.T) {
	ctx := context.Background()
	repo := trackertest.NewMemory()
	projects := tracker.NewProjects(repo, nil)
	user, _ := repo.CreateUser(ctx, "secret")

	for range 2 {
		if _, err := projects.Add(ctx, user, "X"); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if _, err := projects.Resolve(ctx, user, strPtr("X")); !errors.Is(err, tracker.ErrAmbiguousProject) {
		t.Errorf("Resolve duplicate = %v, want ErrAmbiguousProject", err)
	}

	removed, err := projects.Remove(ctx, user, "X")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed != 2 {
		t.Errorf("Remove = %d, want 2", removed)
	}
	if removed, _ := projects.Remove(ctx, user, "X"); removed != 0 {
		t.Errorf("second Remove = %d, want 0", removed)
	}
}

func TestAddRejectsEmptyName(t *testing.T) {
	repo := trackertest.NewMemory()
	projects := tracker.NewProjects(repo, nil)
	user, _ := repo.CreateUser(context.Background(), "secret")

	if _, err := projects.Add(context.Background(), user, "  "); !errors.Is(err, tracker.ErrInvalidName) {
		t.Errorf("Add blank name = %v, want ErrInvalidName", err)
	}
}
