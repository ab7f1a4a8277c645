package board

import "sync"

// Registry is the single lookup point from transport events to rooms.
// It is the only shared mutable map in the engine.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room for id, creating it on first use. Two
// concurrent lookups of a fresh id always observe the same instance.
func (g *Registry) GetOrCreate(id string) *Room {
	g.mu.RLock()
	room, ok := g.rooms[id]
	g.mu.RUnlock()

	if ok {
		return room
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if room, ok := g.rooms[id]; ok {
		return room
	}
	room = NewRoom(id)
	g.rooms[id] = room
	return room
}

// Get returns the room for id without creating it.
func (g *Registry) Get(id string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[id]
	return room, ok
}

// Remove evicts a room from the registry.
func (g *Registry) Remove(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, id)
}

// Len returns the number of rooms currently held.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// IDs returns the ids of all rooms currently held.
func (g *Registry) IDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.rooms))
	for id := range g.rooms {
		ids = append(ids, id)
	}
	return ids
}
