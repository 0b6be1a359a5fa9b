package tree

import (
	"maps"
	"slices"
)

// Store is a flat Blackboard backed by a map. Trees only run on the
// simulation goroutine, so it is not synchronized.
type Store map[string]any

func (s Store) Get(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}

func (s Store) Set(key string, value any) { s[key] = value }
func (s Store) Delete(key string)         { delete(s, key) }
func (s Store) Keys() []string            { return slices.Sorted(maps.Keys(s)) }

// Memory is what a team's trees remember between ticks: one store shared by
// the whole team and one private store per ship.
type Memory struct {
	team  Store
	ships map[uint64]Store
}

func NewMemory() *Memory {
	return &Memory{team: Store{}, ships: make(map[uint64]Store)}
}

// Team returns the store shared by every tree of the team.
func (m *Memory) Team() Blackboard { return m.team }

// Ship returns the private store of ship id, creating it on first use.
func (m *Memory) Ship(id uint64) Blackboard {
	s, ok := m.ships[id]
	if !ok {
		s = Store{}
		m.ships[id] = s
	}
	return s
}
