// Package trackertest provides an in-memory tracker.Repository for tests.
package trackertest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tte/tracker"
)

type project struct {
	id    uuid.UUID
	owner uuid.UUID
	name  string
}

type entry struct {
	id      uuid.UUID
	project uuid.UUID
	start   time.Time
	stop    *time.Time
}

type state struct {
	users    map[uuid.UUID]string
	projects []project
	defaults map[uuid.UUID]uuid.UUID
	entries  []entry

	extraDefaults []uuid.UUID
}

func (s state) clone() state {
	c := state{
		users:    make(map[uuid.UUID]string, len(s.users)),
		projects: append([]project(nil), s.projects...),
		defaults: make(map[uuid.UUID]uuid.UUID, len(s.defaults)),
		entries:  make([]entry, len(s.entries)),

		extraDefaults: append([]uuid.UUID(nil), s.extraDefaults...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.defaults {
		c.defaults[k] = v
	}
	for i, e := range s.entries {
		if e.stop != nil {
			stop := *e.stop
			e.stop = &stop
		}
		c.entries[i] = e
	}
	return c
}

// Memory is a tracker.Repository and tracker.Transactor held in memory.
// Its clock advances by Step on every read so ordering checks see strictly
// increasing timestamps.
type Memory struct {
	mu    sync.Mutex
	state state
	now   time.Time

	Step time.Duration
	// Fail, when set, is returned by every call.
	Fail error
}

func NewMemory() *Memory {
	return &Memory{
		state: state{
			users:    make(map[uuid.UUID]string),
			defaults: make(map[uuid.UUID]uuid.UUID),
		},
		now:  time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		Step: time.Second,
	}
}

// Advance moves the store clock forward.
func (m *Memory) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// DeleteUser removes a user as an out-of-band administrator would.
func (m *Memory) DeleteUser(user uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.users, user)
}

// MarkDefault flags a project as default without clearing other flags,
// producing the invariant violation the resolver must detect.
func (m *Memory) MarkDefault(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.extraDefaults = append(m.state.extraDefaults, id)
}

func (m *Memory) tick() time.Time {
	now := m.now
	m.now = m.now.Add(m.Step)
	return now
}

func (m *Memory) FindUserBySecret(ctx context.Context, secret string) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return uuid.Nil, false, m.Fail
	}
	for id, s := range m.state.users {
		if s == secret {
			return id, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (m *Memory) CreateUser(ctx context.Context, secret string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return uuid.Nil, m.Fail
	}
	id := uuid.New()
	m.state.users[id] = secret
	return id, nil
}

func (m *Memory) UserExists(ctx context.Context, user uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return false, m.Fail
	}
	_, ok := m.state.users[user]
	return ok, nil
}

func (m *Memory) ListProjects(ctx context.Context, user uuid.UUID) ([]tracker.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	var projects []tracker.Project
	for _, p := range m.state.projects {
		if p.owner != user {
			continue
		}
		projects = append(projects, tracker.Project{
			ID:        p.id,
			Name:      p.name,
			IsDefault: m.isDefault(user, p.id),
		})
	}
	return projects, nil
}

func (m *Memory) isDefault(user, id uuid.UUID) bool {
	if m.state.defaults[user] == id {
		return true
	}
	for _, extra := range m.state.extraDefaults {
		if extra == id {
			return true
		}
	}
	return false
}

func (m *Memory) CreateProject(ctx context.Context, user uuid.UUID, name string) (tracker.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return tracker.Project{}, m.Fail
	}
	p := project{id: uuid.New(), owner: user, name: name}
	m.state.projects = append(m.state.projects, p)
	return tracker.Project{ID: p.id, Name: p.name}, nil
}

func (m *Memory) DeleteProjectsByName(ctx context.Context, user uuid.UUID, name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return 0, m.Fail
	}
	var kept []project
	removed := make(map[uuid.UUID]bool)
	for _, p := range m.state.projects {
		if p.owner == user && p.name == name {
			removed[p.id] = true
			continue
		}
		kept = append(kept, p)
	}
	m.state.projects = kept
	if removed[m.state.defaults[user]] {
		delete(m.state.defaults, user)
	}
	var entries []entry
	for _, e := range m.state.entries {
		if !removed[e.project] {
			entries = append(entries, e)
		}
	}
	m.state.entries = entries
	return len(removed), nil
}

func (m *Memory) SetDefaultProject(ctx context.Context, user uuid.UUID, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return false, m.Fail
	}
	for _, p := range m.state.projects {
		if p.owner == user && p.name == name {
			m.state.defaults[user] = p.id
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) owns(user, projectID uuid.UUID) bool {
	for _, p := range m.state.projects {
		if p.id == projectID {
			return p.owner == user
		}
	}
	return false
}

func (m *Memory) StopAllActive(ctx context.Context, user uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return 0, m.Fail
	}
	now := m.tick()
	stopped := 0
	for i, e := range m.state.entries {
		if e.stop == nil && m.owns(user, e.project) {
			stop := now
			m.state.entries[i].stop = &stop
			stopped++
		}
	}
	return stopped, nil
}

func (m *Memory) CreateEntry(ctx context.Context, user, projectID uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return uuid.Nil, m.Fail
	}
	if !m.owns(user, projectID) {
		return uuid.Nil, tracker.ErrProjectNotFound
	}
	e := entry{id: uuid.New(), project: projectID, start: m.tick()}
	m.state.entries = append(m.state.entries, e)
	return e.id, nil
}

func (m *Memory) ListEntries(ctx context.Context, user uuid.UUID) ([]tracker.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	names := make(map[uuid.UUID]string)
	for _, p := range m.state.projects {
		if p.owner == user {
			names[p.id] = p.name
		}
	}
	now := m.tick()
	var entries []tracker.Entry
	for _, e := range m.state.entries {
		name, ok := names[e.project]
		if !ok {
			continue
		}
		end := now
		if e.stop != nil {
			end = *e.stop
		}
		entries = append(entries, tracker.Entry{
			ID:          e.id,
			Start:       e.start,
			Stop:        e.stop,
			Duration:    end.Sub(e.start),
			ProjectName: name,
		})
	}
	return entries, nil
}

// InTx applies fn to a snapshot and keeps the result only if fn succeeds.
func (m *Memory) InTx(ctx context.Context, fn func(repo tracker.Repository) error) error {
	m.mu.Lock()
	snapshot := m.state.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// Running counts the user's entries without a stop timestamp.
func (m *Memory) Running(user uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.state.entries {
		if e.stop == nil && m.owns(user, e.project) {
			n++
		}
	}
	return n
}

// NoTx hides the Transactor implementation of a repository.
type NoTx struct {
	tracker.Repository
}
