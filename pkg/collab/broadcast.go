package collab

import (
	"log/slog"

	"github.com/ultravionic/cozyui/internal/metrics"
	"github.com/ultravionic/cozyui/pkg/domain"
)

// Broadcaster fans frames out to the members of a session. It is
// payload-agnostic: envelopes are forwarded verbatim, so new
// interaction types require no change here. Delivery to an individual
// member is fire-and-forget; a failed send is logged and counted but
// never aborts delivery to the remaining members and never surfaces to
// the sender.
type Broadcaster struct {
	presence *Presence
	router   *Router
	logger   *slog.Logger
	metrics  *metrics.Set
}

// NewBroadcaster wires a broadcaster over the shared registries.
func NewBroadcaster(presence *Presence, router *Router, logger *slog.Logger, set *metrics.Set) *Broadcaster {
	return &Broadcaster{
		presence: presence,
		router:   router,
		logger:   logger,
		metrics:  set,
	}
}

// Broadcast resolves the sender's current session and delivers the
// envelope to every other member. The target session is derived from
// the sender's join, never from the client, which prevents spoofed
// cross-session delivery. Returns the number of members reached, or
// domain.ErrNotJoined when the sender has no session.
func (b *Broadcaster) Broadcast(senderID string, env domain.Envelope) (int, error) {
	sessionID, ok := b.router.SessionOf(senderID)
	if !ok {
		return 0, domain.ErrNotJoined
	}
	b.metrics.EventsRelayed.WithLabelValues(env.Type).Inc()
	return b.Deliver(sessionID, senderID, env), nil
}

// Deliver sends the envelope to every member of the session except
// excludeID. The membership snapshot is taken once, at call time, so a
// join or leave arriving mid-broadcast never races the iteration.
func (b *Broadcaster) Deliver(sessionID, excludeID string, env domain.Envelope) int {
	msg, err := env.Encode()
	if err != nil {
		b.logger.Error("encode envelope", "type", env.Type, "err", err)
		return 0
	}

	delivered := 0
	for _, memberID := range b.router.MembersOf(sessionID) {
		if memberID == excludeID {
			continue
		}
		out, ok := b.presence.Outbox(memberID)
		if !ok {
			// Member disconnected between snapshot and send.
			continue
		}
		if err := out.Send(msg); err != nil {
			b.metrics.DeliveryFailures.Inc()
			b.logger.Debug("dropped frame for member",
				"session", sessionID, "conn", memberID, "type", env.Type, "err", err)
			continue
		}
		delivered++
	}
	return delivered
}
