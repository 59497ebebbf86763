package hook

import (
	"sort"
	"sync"

	"github.com/quillcms/quill-backend/internal/domain"
)

// FilterFunc rewrites field values before a record is persisted. The
// returned map replaces the input for the next filter in the chain.
type FilterFunc func(contentType string, fields domain.FieldValues) domain.FieldValues

// ActionFunc runs after a record was persisted. Side effects are
// returned as warning strings instead of being written to a shared
// output stream, so the response layer stays in control of them.
type ActionFunc func(contentType string, content *domain.Content, created bool) []string

type filterEntry struct {
	name     string
	fn       FilterFunc
	priority int
}

type actionEntry struct {
	name     string
	fn       ActionFunc
	priority int
}

// Manager registers and runs save-time hooks (thread-safe)
type Manager struct {
	mu      sync.RWMutex
	filters []filterEntry
	actions []actionEntry
}

// NewManager 새 Manager 생성
func NewManager() *Manager {
	return &Manager{}
}

// RegisterFilter adds a before-save filter. Lower priority runs first.
func (m *Manager) RegisterFilter(name string, fn FilterFunc, priority int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, filterEntry{name: name, fn: fn, priority: priority})
	sort.SliceStable(m.filters, func(i, j int) bool {
		return m.filters[i].priority < m.filters[j].priority
	})
}

// RegisterAction adds an after-save action. Lower priority runs first.
func (m *Manager) RegisterAction(name string, fn ActionFunc, priority int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, actionEntry{name: name, fn: fn, priority: priority})
	sort.SliceStable(m.actions, func(i, j int) bool {
		return m.actions[i].priority < m.actions[j].priority
	})
}

// ApplyBeforeSave chains all filters over the field values
func (m *Manager) ApplyBeforeSave(contentType string, fields domain.FieldValues) domain.FieldValues {
	m.mu.RLock()
	entries := make([]filterEntry, len(m.filters))
	copy(entries, m.filters)
	m.mu.RUnlock()

	current := fields
	for _, entry := range entries {
		if next := entry.fn(contentType, current); next != nil {
			current = next
		}
	}
	return current
}

// RunAfterSave runs all actions and collects their warnings
func (m *Manager) RunAfterSave(contentType string, content *domain.Content, created bool) []string {
	m.mu.RLock()
	entries := make([]actionEntry, len(m.actions))
	copy(entries, m.actions)
	m.mu.RUnlock()

	var warnings []string
	for _, entry := range entries {
		warnings = append(warnings, entry.fn(contentType, content, created)...)
	}
	return warnings
}
