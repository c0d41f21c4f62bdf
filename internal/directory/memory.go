package directory

import (
	"context"
	"sync"
)

// Memory is an in-process Directory for dev mode and tests.
type Memory struct {
	mu      sync.RWMutex
	authors map[int64]Author
	teams   map[int64]Team
}

// NewMemory returns an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{authors: map[int64]Author{}, teams: map[int64]Team{}}
}

// PutTeam registers or replaces a team.
func (m *Memory) PutTeam(t Team) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[t.ID] = t
}

// PutAuthor registers or replaces an author. teamID 0 means no team.
func (m *Memory) PutAuthor(a Author, teamID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if teamID != 0 {
		if t, ok := m.teams[teamID]; ok {
			a.Team = &t
		}
	}
	m.authors[a.ID] = a
}

// FindAuthor implements Directory.
func (m *Memory) FindAuthor(_ context.Context, id int64) (Author, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.authors[id]
	return a, ok, nil
}

// FindTeam implements Directory.
func (m *Memory) FindTeam(_ context.Context, id int64) (Team, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[id]
	return t, ok, nil
}

// SetAuthorStatus implements Directory.
func (m *Memory) SetAuthorStatus(_ context.Context, id int64, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.authors[id]
	if !ok {
		return nil
	}
	a.Status = status
	m.authors[id] = a
	return nil
}
