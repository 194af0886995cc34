package widget

import (
	"sort"
	"strings"
	"sync"
)

// MemoryMount is an in-memory mount target. Until paths are registered it
// accepts every path.
type MemoryMount struct {
	id string

	mu     sync.RWMutex
	paths  map[string]struct{}
	marked map[string]struct{}
}

var (
	_ Mount         = (*MemoryMount)(nil)
	_ PathRegistrar = (*MemoryMount)(nil)
)

// NewMemoryMount returns an empty mount named id.
func NewMemoryMount(id string) *MemoryMount {
	return &MemoryMount{id: id, marked: map[string]struct{}{}}
}

func (m *MemoryMount) ID() string {
	return m.id
}

func (m *MemoryMount) ClearErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = map[string]struct{}{}
}

func (m *MemoryMount) MarkError(path string) bool {
	path = strings.TrimSpace(path)
	if path == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paths != nil {
		if _, ok := m.paths[path]; !ok {
			return false
		}
	}
	m.marked[path] = struct{}{}
	return true
}

// SetPaths replaces the set of element paths that exist under the mount.
func (m *MemoryMount) SetPaths(paths []string) {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	m.mu.Lock()
	m.paths = set
	m.mu.Unlock()
}

// Marked returns the flagged paths, sorted.
func (m *MemoryMount) Marked() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.marked))
	for p := range m.marked {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// MountTable is a MountResolver over in-memory mounts.
type MountTable struct {
	mu     sync.RWMutex
	mounts map[string]Mount
}

var _ MountResolver = (*MountTable)(nil)

// NewMountTable returns a table pre-populated with mounts.
func NewMountTable(mounts ...Mount) *MountTable {
	t := &MountTable{mounts: map[string]Mount{}}
	for _, m := range mounts {
		t.Add(m)
	}
	return t
}

// Add registers m under its id, replacing any previous mount.
func (t *MountTable) Add(m Mount) {
	if m == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mounts[m.ID()] = m
}

// Ensure returns the memory mount for id, creating it when missing.
func (t *MountTable) Ensure(id string) Mount {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok := t.mounts[id]; ok {
		return m
	}
	m := NewMemoryMount(id)
	t.mounts[id] = m
	return m
}

// Remove drops the mount for id.
func (t *MountTable) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.mounts, id)
}

func (t *MountTable) Resolve(id string) (Mount, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.mounts[id]
	return m, ok
}
