// internal/table/manager.go
package table

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Manager is the in-memory registry of live tables. One process hosts many
// tables; each is locked independently.
type Manager struct {
	mu     sync.RWMutex
	tables map[uuid.UUID]*Table
}

// NewManager creates an empty registry.
func NewManager() *Manager {
	return &Manager{tables: make(map[uuid.UUID]*Table)}
}

// Add registers a table.
func (m *Manager) Add(t *Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.ID] = t
}

// Get looks up a live table.
func (m *Manager) Get(id uuid.UUID) (*Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	return t, ok
}

// Remove drops a table from the registry. The caller is responsible for
// persisting it first if it should survive.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, id)
}

// List returns the registered tables in no particular order.
func (m *Manager) List() []*Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Table, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t)
	}
	return out
}

// Resolve returns the table or a caller-reportable error.
func (m *Manager) Resolve(id uuid.UUID) (*Table, error) {
	t, ok := m.Get(id)
	if !ok {
		return nil, fmt.Errorf("no live table %s", id)
	}
	return t, nil
}
