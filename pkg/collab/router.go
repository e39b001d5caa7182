package collab

import "sync"

// Router maps workflow ids to the set of connections subscribed to
// them. Sessions are created lazily on first join and removed as soon
// as the last member leaves, so abandoned workflow ids never
// accumulate. One mutex guards both tables, which serializes all
// membership mutations and the snapshots taken for broadcast.
type Router struct {
	mu      sync.Mutex
	rooms   map[string]map[string]struct{} // sessionID -> member conn ids
	current map[string]string              // connID -> sessionID
}

// NewRouter creates an empty session router.
func NewRouter() *Router {
	return &Router{
		rooms:   make(map[string]map[string]struct{}),
		current: make(map[string]string),
	}
}

// Join moves a connection into a session atomically. If the connection
// was a member of a different session, that membership is dropped first
// and the previous session id is returned so the caller can notify the
// old room. Joining the current session again is a no-op.
func (r *Router) Join(connID, sessionID string) (previous string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous = r.current[connID]
	if previous == sessionID {
		return previous
	}
	if previous != "" {
		r.dropLocked(connID, previous)
	}

	room, ok := r.rooms[sessionID]
	if !ok {
		room = make(map[string]struct{})
		r.rooms[sessionID] = room
	}
	room[connID] = struct{}{}
	r.current[connID] = sessionID
	return previous
}

// Leave removes a connection from its session, if joined, and returns
// the session id it left. The session is torn down when it empties.
func (r *Router) Leave(connID string) (sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID = r.current[connID]
	if sessionID == "" {
		return ""
	}
	r.dropLocked(connID, sessionID)
	delete(r.current, connID)
	return sessionID
}

func (r *Router) dropLocked(connID, sessionID string) {
	if room, ok := r.rooms[sessionID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(r.rooms, sessionID)
		}
	}
}

// SessionOf returns the session a connection is currently joined to.
func (r *Router) SessionOf(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID, ok := r.current[connID]
	return sessionID, ok && sessionID != ""
}

// MembersOf returns a snapshot of the session's members. Iteration
// order is undefined; callers must not assume ordering. The snapshot is
// safe to iterate while joins and leaves proceed concurrently.
func (r *Router) MembersOf(sessionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[sessionID]
	members := make([]string, 0, len(room))
	for id := range room {
		members = append(members, id)
	}
	return members
}

// IsEmpty reports whether a session has no members. Empty sessions do
// not exist in the table, so this is equivalent to "unknown or gone".
func (r *Router) IsEmpty(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rooms[sessionID]) == 0
}

// ActiveSessions returns the number of sessions with members.
func (r *Router) ActiveSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
