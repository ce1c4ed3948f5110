package skills

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Manager owns the skill catalog: a name -> expanded-prompt mapping. The
// catalog is refreshed only on an explicit Discover call, never by a
// background watcher.
type Manager struct {
	workspace string
	logger    *slog.Logger

	mu     sync.RWMutex
	skills map[string]*Skill
}

// NewManager creates a skill manager rooted at workspace. Call Discover
// before using it; an unfilled Manager behaves as an empty catalog.
func NewManager(workspace string) *Manager {
	return &Manager{
		workspace: workspace,
		logger:    slog.Default().With("component", "skills"),
		skills:    make(map[string]*Skill),
	}
}

// Discover (re)scans built-in and workspace skills, atomically replacing
// the catalog.
func (m *Manager) Discover(ctx context.Context) error {
	found, err := Discover(m.workspace)
	if err != nil {
		return fmt.Errorf("discover skills: %w", err)
	}

	m.mu.Lock()
	m.skills = found
	m.mu.Unlock()

	m.logger.Info("discovered skills", "count", len(found))
	return nil
}

// Get returns a skill by name.
func (m *Manager) Get(name string) (*Skill, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	skill, ok := m.skills[name]
	return skill, ok
}

// List returns all discovered skills sorted by name.
func (m *Manager) List() []*Skill {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Skill, 0, len(m.skills))
	for _, skill := range m.skills {
		result = append(result, skill)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// ListSnapshots returns lightweight snapshots of the catalog, e.g. for
// persisting alongside a session.
func (m *Manager) ListSnapshots() []*Snapshot {
	skills := m.List()
	snapshots := make([]*Snapshot, len(skills))
	for i, skill := range skills {
		snapshots[i] = skill.ToSnapshot()
	}
	return snapshots
}

// Names returns all discovered skill names, used by the completer to
// suggest "/" commands.
func (m *Manager) Names() []string {
	skills := m.List()
	names := make([]string, len(skills))
	for i, skill := range skills {
		names[i] = skill.Name
	}
	return names
}

// Expand looks up name and returns its template interpolated with args. ok
// is false if no such skill is registered.
func (m *Manager) Expand(name, args string) (prompt string, ok bool) {
	skill, found := m.Get(name)
	if !found {
		return "", false
	}
	return Interpolate(skill.Template, args), true
}
