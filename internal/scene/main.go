package scene

import (
	"errors"
	"fmt"
)

// ErrDuplicateID is returned when a data-block key is already taken.
var ErrDuplicateID = errors.New("duplicate data-block")

// Main is the authoritative database of data-blocks. Entities keep their
// insertion order so that anything iterating the database is deterministic.
type Main struct {
	order []Entity
	byKey map[string]Entity
}

// NewMain creates an empty database.
func NewMain() *Main {
	return &Main{byKey: make(map[string]Entity)}
}

// Add registers data-blocks. The first key collision aborts with ErrDuplicateID.
func (m *Main) Add(entities ...Entity) error {
	for _, e := range entities {
		key := e.DataID().Key()
		if _, ok := m.byKey[key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, key)
		}
		m.byKey[key] = e
		m.order = append(m.order, e)
	}
	return nil
}

// MustAdd is Add for fixtures; it panics on a collision.
func (m *Main) MustAdd(entities ...Entity) *Main {
	if err := m.Add(entities...); err != nil {
		panic(err)
	}
	return m
}

// Lookup returns the data-block with the given type and name.
func (m *Main) Lookup(t IDType, name string) (Entity, bool) {
	e, ok := m.byKey[(&ID{Name: name, Type: t}).Key()]
	return e, ok
}

// Remove drops a data-block from the database.
func (m *Main) Remove(e Entity) {
	key := e.DataID().Key()
	if _, ok := m.byKey[key]; !ok {
		return
	}
	delete(m.byKey, key)
	for i, cur := range m.order {
		if cur == e {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Contains reports whether e is registered.
func (m *Main) Contains(e Entity) bool {
	cur, ok := m.byKey[e.DataID().Key()]
	return ok && cur == e
}

// Entities returns all data-blocks in insertion order.
func (m *Main) Entities() []Entity {
	out := make([]Entity, len(m.order))
	copy(out, m.order)
	return out
}

// Scenes returns the scenes in insertion order.
func (m *Main) Scenes() []*Scene {
	var out []*Scene
	for _, e := range m.order {
		if sc, ok := e.(*Scene); ok {
			out = append(out, sc)
		}
	}
	return out
}

// Objects returns the objects in insertion order.
func (m *Main) Objects() []*Object {
	var out []*Object
	for _, e := range m.order {
		if ob, ok := e.(*Object); ok {
			out = append(out, ob)
		}
	}
	return out
}

// Len returns the number of data-blocks.
func (m *Main) Len() int { return len(m.order) }
