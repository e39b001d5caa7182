package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ultravionic/cozyui/internal/logging"
	"github.com/ultravionic/cozyui/internal/metrics"
	"github.com/ultravionic/cozyui/pkg/domain"
	"github.com/ultravionic/cozyui/pkg/ports"
)

// SessionResolver answers whether a workflow id may be joined. The
// workflow store backs it in production; tests use a stub.
type SessionResolver interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// Manager coordinates connection lifecycle transitions. Each connection
// moves through connected (registered, unidentified) -> identified ->
// joined, back to identified on rejoin, and to terminated from any
// state on disconnect. Transition methods reject calls that are invalid
// for the connection's current state instead of relying on call order.
type Manager struct {
	presence    *Presence
	router      *Router
	broadcaster *Broadcaster
	resolver    SessionResolver
	logger      *slog.Logger
	metrics     *metrics.Set
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics sets the collector set shared with the exporter.
func WithMetrics(set *metrics.Set) Option {
	return func(m *Manager) {
		m.metrics = set
	}
}

// WithSessionResolver enables the workflow-existence check on joins.
// Without it every session id is accepted.
func WithSessionResolver(r SessionResolver) Option {
	return func(m *Manager) {
		m.resolver = r
	}
}

// NewManager builds a manager with its own registries. All state is
// held inside the returned instance, so isolated managers can coexist.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		presence: NewPresence(),
		router:   NewRouter(),
		logger:   logging.NewNop(),
		metrics:  metrics.NewUnregistered(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.broadcaster = NewBroadcaster(m.presence, m.router, m.logger, m.metrics)
	return m
}

// OnConnect registers a connection with its delivery sink. The
// connection stays unidentified until OnIdentify.
func (m *Manager) OnConnect(connID string, out ports.Outbox) {
	m.presence.Register(connID, out)
	m.metrics.ConnectionsActive.Set(float64(m.presence.Count()))
	m.logger.Debug("connection registered", "conn", connID)
}

// OnIdentify attaches the verified identity to a connection. Repeating
// it is a protocol violation and returns domain.ErrAlreadyIdentified.
func (m *Manager) OnIdentify(connID string, id domain.Identity) error {
	if err := m.presence.Identify(connID, id); err != nil {
		return err
	}
	m.logger.Info("connection identified", "conn", connID, "user", id.UserID, "username", id.Username)
	return nil
}

// OnJoin moves a connection into the session for the given workflow id.
// If the connection was in another session, that room receives a
// presence_left first; the new room's remaining members receive
// presence_joined, and the joiner receives the current member roster.
func (m *Manager) OnJoin(ctx context.Context, connID, sessionID string) error {
	identity, err := m.presence.Lookup(connID)
	if err != nil {
		return err
	}
	if identity.IsZero() {
		return domain.ErrUnauthorized
	}

	if m.resolver != nil {
		exists, err := m.resolver.Exists(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("resolve session %q: %w", sessionID, err)
		}
		if !exists {
			return domain.ErrUnknownSession
		}
	}

	previous := m.router.Join(connID, sessionID)
	if !m.presence.SetSession(connID, sessionID) {
		// The connection was torn down (disconnect or idle eviction)
		// between the lookup above and the join. Undo the membership so
		// the room never holds a dead connection.
		m.router.Leave(connID)
		m.metrics.SessionsActive.Set(float64(m.router.ActiveSessions()))
		return domain.ErrConnectionNotFound
	}
	m.presence.Touch(connID)

	if previous == sessionID {
		// Rejoining the current session changes nothing.
		return nil
	}
	if previous != "" {
		m.broadcaster.Deliver(previous, connID, domain.PresenceEnvelope(domain.MsgPresenceLeft, identity))
	}
	m.broadcaster.Deliver(sessionID, connID, domain.PresenceEnvelope(domain.MsgPresenceJoined, identity))
	m.sendRoster(connID, sessionID)

	m.metrics.SessionsActive.Set(float64(m.router.ActiveSessions()))
	m.logger.Info("joined session", "conn", connID, "user", identity.UserID, "session", sessionID, "previous", previous)
	return nil
}

// sendRoster tells the joining connection who is already in the room.
func (m *Manager) sendRoster(connID, sessionID string) {
	// Empty slice, not nil: the first joiner must see [] on the wire.
	members := []domain.Identity{}
	for _, memberID := range m.router.MembersOf(sessionID) {
		if memberID == connID {
			continue
		}
		if id, err := m.presence.Lookup(memberID); err == nil && !id.IsZero() {
			members = append(members, id)
		}
	}

	raw, err := json.Marshal(members)
	if err != nil {
		return
	}
	out, ok := m.presence.Outbox(connID)
	if !ok {
		return
	}
	msg, err := domain.Envelope{Type: domain.MsgSessionUsers, Payload: raw}.Encode()
	if err != nil {
		return
	}
	if err := out.Send(msg); err != nil {
		m.logger.Debug("dropped roster frame", "conn", connID, "err", err)
	}
}

// OnEvent relays an interaction event to the other members of the
// sender's session. The payload is forwarded verbatim with the sender's
// user id stamped on. Returns domain.ErrNotJoined when the sender has
// no session, so the client can detect it was dropped from a room.
func (m *Manager) OnEvent(connID string, eventType domain.EventType, payload json.RawMessage) (int, error) {
	outType := eventType.Outbound()
	if outType == "" {
		return 0, fmt.Errorf("unknown event type %q", eventType)
	}

	identity, err := m.presence.Lookup(connID)
	if err != nil {
		return 0, err
	}
	m.presence.Touch(connID)

	return m.broadcaster.Broadcast(connID, domain.Envelope{
		Type:         outType,
		SenderUserID: identity.UserID,
		Payload:      payload,
	})
}

// OnDisconnect removes a connection from the presence registry and its
// session, broadcasting presence_left to the remaining members. Empty
// sessions are torn down. Safe to call more than once; transports
// signal closure through multiple paths.
func (m *Manager) OnDisconnect(connID string) {
	identity, _ := m.presence.Lookup(connID)
	out, _ := m.presence.Outbox(connID)

	sessionID, ok := m.presence.Unregister(connID)
	if !ok {
		return
	}
	m.router.Leave(connID)
	if out != nil {
		_ = out.Close()
	}

	if sessionID != "" && !identity.IsZero() {
		m.broadcaster.Deliver(sessionID, connID, domain.PresenceEnvelope(domain.MsgPresenceLeft, identity))
	}

	m.metrics.ConnectionsActive.Set(float64(m.presence.Count()))
	m.metrics.SessionsActive.Set(float64(m.router.ActiveSessions()))
	m.logger.Info("connection closed", "conn", connID, "user", identity.UserID, "session", sessionID)
}

// Touch refreshes a connection's activity clock. The transport calls it
// on pongs so idle eviction only hits truly silent connections.
func (m *Manager) Touch(connID string) {
	m.presence.Touch(connID)
}

// EvictIdle disconnects every connection silent for longer than maxIdle
// and returns how many were removed. Idle policy is decided by the
// caller; eviction goes through the same path as a transport close.
func (m *Manager) EvictIdle(maxIdle time.Duration) int {
	idle := m.presence.IdleSince(time.Now().Add(-maxIdle))
	for _, connID := range idle {
		m.logger.Info("evicting idle connection", "conn", connID, "max_idle", maxIdle)
		m.OnDisconnect(connID)
	}
	return len(idle)
}

// Members exposes the current member ids of a session.
func (m *Manager) Members(sessionID string) []string {
	return m.router.MembersOf(sessionID)
}

// Connections returns the number of registered connections.
func (m *Manager) Connections() int {
	return m.presence.Count()
}
