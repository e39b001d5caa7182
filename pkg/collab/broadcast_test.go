package collab_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultravionic/cozyui/internal/logging"
	"github.com/ultravionic/cozyui/internal/metrics"
	"github.com/ultravionic/cozyui/pkg/collab"
	"github.com/ultravionic/cozyui/pkg/domain"
)

func newBroadcastFixture() (*collab.Presence, *collab.Router, *collab.Broadcaster) {
	presence := collab.NewPresence()
	router := collab.NewRouter()
	b := collab.NewBroadcaster(presence, router, logging.NewNop(), metrics.NewUnregistered())
	return presence, router, b
}

func TestBroadcaster_SkipsSender(t *testing.T) {
	presence, router, b := newBroadcastFixture()

	sender := &fakeOutbox{}
	receiver := &fakeOutbox{}
	presence.Register("a", sender)
	presence.Register("b", receiver)
	router.Join("a", "wf-1")
	router.Join("b", "wf-1")

	payload := json.RawMessage(`{"x":10,"y":20}`)
	delivered, err := b.Broadcast("a", domain.Envelope{
		Type:         domain.MsgCursorUpdate,
		SenderUserID: "u-a",
		Payload:      payload,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	assert.Zero(t, sender.count(), "sender never receives its own event")

	got := receiver.byType(domain.MsgCursorUpdate)
	require.Len(t, got, 1)
	assert.Equal(t, "u-a", got[0].SenderUserID)
	assert.JSONEq(t, `{"x":10,"y":20}`, string(got[0].Payload), "payload forwarded verbatim")
}

func TestBroadcaster_NotJoined(t *testing.T) {
	presence, _, b := newBroadcastFixture()
	presence.Register("a", &fakeOutbox{})

	delivered, err := b.Broadcast("a", domain.Envelope{Type: domain.MsgCursorUpdate})
	assert.ErrorIs(t, err, domain.ErrNotJoined)
	assert.Zero(t, delivered)
}

func TestBroadcaster_PartialDeliveryContinues(t *testing.T) {
	presence, router, b := newBroadcastFixture()

	healthy := &fakeOutbox{}
	broken := &fakeOutbox{failing: true}
	presence.Register("a", &fakeOutbox{})
	presence.Register("b", broken)
	presence.Register("c", healthy)
	for _, id := range []string{"a", "b", "c"} {
		router.Join(id, "wf-1")
	}

	delivered, err := b.Broadcast("a", domain.Envelope{Type: domain.MsgNodeUpdate})
	require.NoError(t, err, "per-member failures are not an overall failure")
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, healthy.count(), "remaining members still reached")
}

func TestBroadcaster_DeliverExcludes(t *testing.T) {
	presence, router, b := newBroadcastFixture()

	a := &fakeOutbox{}
	c := &fakeOutbox{}
	presence.Register("a", a)
	presence.Register("c", c)
	router.Join("a", "wf-1")
	router.Join("c", "wf-1")

	env := domain.PresenceEnvelope(domain.MsgPresenceLeft, identity("u-b"))
	delivered := b.Deliver("wf-1", "a", env)
	assert.Equal(t, 1, delivered)
	assert.Zero(t, a.count())
	require.Len(t, c.byType(domain.MsgPresenceLeft), 1)
}
