package race

import "sync"

// Registry maps room ids to rooms. It is exclusively owned by the session
// coordinator, which is the sole creator and destroyer of rooms. The
// registry lock guards only the map; per-room state is serialized by each
// room's own lock, so unrelated rooms never contend.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Get looks up a room by id.
func (g *Registry) Get(id string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[id]
	return r, ok
}

// GetOrCreate returns the room for id, creating an empty one on first use.
func (g *Registry) GetOrCreate(id string) (room *Room, created bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[id]
	if !ok {
		r = NewRoom(id)
		g.rooms[id] = r
		created = true
	}
	return r, created
}

// Delete removes the room for id, closing it against late joins.
func (g *Registry) Delete(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.rooms[id]; ok {
		r.close()
		delete(g.rooms, id)
	}
}

// DeleteIfEmpty removes the room only if it has no players, and reports
// whether it did. The emptiness check, the close and the map delete happen
// under the registry write lock, and the close makes the dropped room
// reject joins, so a join that already fetched the room either lands
// before this (the room is kept) or fails with ErrRoomClosed and retries.
func (g *Registry) DeleteIfEmpty(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[id]
	if !ok || !r.closeIfEmpty() {
		return false
	}
	delete(g.rooms, id)
	return true
}

// Rooms returns a snapshot of all rooms. Iteration happens outside the
// registry lock so a slow room cannot stall creation or destruction of
// others.
func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		out = append(out, r)
	}
	return out
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
