package collab

import (
	"sync"
	"time"

	"github.com/ultravionic/cozyui/pkg/domain"
	"github.com/ultravionic/cozyui/pkg/ports"
)

// connection is the registry's record of one live connection.
type connection struct {
	outbox     ports.Outbox
	identity   domain.Identity
	sessionID  string
	lastActive time.Time
}

// Presence tracks the currently known connections: their identity,
// delivery sink, current session, and last activity. It is the single
// source of truth for "who is here"; the Manager keeps it consistent
// with the session router.
type Presence struct {
	mu    sync.RWMutex
	conns map[string]*connection
}

// NewPresence creates an empty presence registry.
func NewPresence() *Presence {
	return &Presence{conns: make(map[string]*connection)}
}

// Register adds a connection with its delivery sink. The connection is
// unidentified and unjoined until Identify and SetSession are called.
func (p *Presence) Register(connID string, out ports.Outbox) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[connID] = &connection{outbox: out, lastActive: time.Now()}
}

// Identify attaches a verified identity to a registered connection.
// Returns domain.ErrAlreadyIdentified if the connection already has
// one, and domain.ErrConnectionNotFound if it is not registered.
func (p *Presence) Identify(connID string, id domain.Identity) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, ok := p.conns[connID]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	if !conn.identity.IsZero() {
		return domain.ErrAlreadyIdentified
	}
	conn.identity = id
	return nil
}

// Lookup returns the identity attached to a connection.
func (p *Presence) Lookup(connID string) (domain.Identity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conn, ok := p.conns[connID]
	if !ok {
		return domain.Identity{}, domain.ErrConnectionNotFound
	}
	return conn.identity, nil
}

// Outbox returns the delivery sink for a connection.
func (p *Presence) Outbox(connID string) (ports.Outbox, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conn, ok := p.conns[connID]
	if !ok {
		return nil, false
	}
	return conn.outbox, true
}

// SetSession records the session a connection is currently joined to.
// An empty id marks the connection as unjoined. Reports false when the
// connection is no longer registered, so callers can undo membership
// changes made on its behalf.
func (p *Presence) SetSession(connID, sessionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, ok := p.conns[connID]
	if !ok {
		return false
	}
	conn.sessionID = sessionID
	return true
}

// Touch refreshes the connection's last-activity timestamp.
func (p *Presence) Touch(connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.conns[connID]; ok {
		conn.lastActive = time.Now()
	}
}

// Unregister removes a connection and reports the session it was joined
// to, if any, so the caller can trigger a leave broadcast exactly once.
// A second call for the same id returns ok=false and never errors.
func (p *Presence) Unregister(connID string) (sessionID string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, exists := p.conns[connID]
	if !exists {
		return "", false
	}
	delete(p.conns, connID)
	return conn.sessionID, true
}

// IdleSince returns the ids of connections whose last activity is
// before cutoff. Used by the idle-eviction sweep.
func (p *Presence) IdleSince(cutoff time.Time) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var idle []string
	for id, conn := range p.conns {
		if conn.lastActive.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	return idle
}

// Count returns the number of registered connections.
func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns)
}
