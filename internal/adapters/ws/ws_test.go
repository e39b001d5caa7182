package ws_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultravionic/cozyui/internal/adapters/ws"
	"github.com/ultravionic/cozyui/pkg/collab"
	"github.com/ultravionic/cozyui/pkg/domain"
)

// stubAuth maps tokens straight to identities.
type stubAuth map[string]domain.Identity

func (s stubAuth) AuthenticateConnection(ctx context.Context, token string) (domain.Identity, error) {
	identity, ok := s[token]
	if !ok {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return identity, nil
}

type allowAll struct{}

func (allowAll) Exists(ctx context.Context, sessionID string) (bool, error) {
	return true, nil
}

func newTestServer(t *testing.T, mgr *collab.Manager) *httptest.Server {
	t.Helper()

	auth := stubAuth{
		"tok-a": {UserID: "u-a", Username: "alice", DisplayName: "alice", Color: "#e74c3c"},
		"tok-b": {UserID: "u-b", Username: "bob", DisplayName: "bob", Color: "#2ecc71"},
	}
	srv := httptest.NewServer(ws.New(mgr, auth))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload string) {
	t.Helper()
	frame := domain.Envelope{Type: msgType, Payload: json.RawMessage(payload)}
	require.NoError(t, conn.WriteJSON(frame))
}

// readUntil reads frames until one of the wanted type arrives, skipping
// presence chatter that is irrelevant to the assertion.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) domain.Envelope {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var env domain.Envelope
		require.NoError(t, conn.ReadJSON(&env), "waiting for %s", msgType)
		if env.Type == msgType {
			return env
		}
	}
}

func TestHandshake_RejectsBadToken(t *testing.T) {
	mgr := collab.NewManager()
	srv := newTestServer(t, mgr)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
	assert.Zero(t, mgr.Connections(), "rejected handshake has no side effects")
}

func TestCursorMoveFanOut(t *testing.T) {
	mgr := collab.NewManager(collab.WithSessionResolver(allowAll{}))
	srv := newTestServer(t, mgr)

	connA := dial(t, srv, "tok-a")
	send(t, connA, "join", `{"sessionId":"wf-1"}`)
	readUntil(t, connA, domain.MsgSessionUsers)

	connB := dial(t, srv, "tok-b")
	send(t, connB, "join", `{"sessionId":"wf-1"}`)
	readUntil(t, connB, domain.MsgSessionUsers)
	readUntil(t, connA, domain.MsgPresenceJoined)

	send(t, connA, "cursor_move", `{"x":10,"y":20}`)

	env := readUntil(t, connB, domain.MsgCursorUpdate)
	assert.Equal(t, "u-a", env.SenderUserID)
	assert.JSONEq(t, `{"x":10,"y":20}`, string(env.Payload))
}

func TestEventBeforeJoinGetsErrorAck(t *testing.T) {
	mgr := collab.NewManager()
	srv := newTestServer(t, mgr)

	conn := dial(t, srv, "tok-a")
	send(t, conn, "node_select", `{"nodeIds":["n1"]}`)

	env := readUntil(t, conn, domain.MsgError)
	var payload domain.ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "not_joined", payload.Code)

	// The connection survives and can still join.
	send(t, conn, "join", `{"sessionId":"wf-1"}`)
	readUntil(t, conn, domain.MsgSessionUsers)
}

func TestJoinUnknownSessionGetsErrorAck(t *testing.T) {
	resolver := map[string]bool{"wf-real": true}
	mgr := collab.NewManager(collab.WithSessionResolver(fixedSessions(resolver)))
	srv := newTestServer(t, mgr)

	conn := dial(t, srv, "tok-a")
	send(t, conn, "join", `{"sessionId":"wf-404"}`)

	env := readUntil(t, conn, domain.MsgError)
	var payload domain.ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "unknown_session", payload.Code)

	send(t, conn, "join", `{"sessionId":"wf-real"}`)
	readUntil(t, conn, domain.MsgSessionUsers)
}

type fixedSessions map[string]bool

func (f fixedSessions) Exists(ctx context.Context, sessionID string) (bool, error) {
	return f[sessionID], nil
}

func TestDisconnectBroadcastsPresenceLeft(t *testing.T) {
	mgr := collab.NewManager()
	srv := newTestServer(t, mgr)

	connA := dial(t, srv, "tok-a")
	send(t, connA, "join", `{"sessionId":"wf-1"}`)
	readUntil(t, connA, domain.MsgSessionUsers)

	connB := dial(t, srv, "tok-b")
	send(t, connB, "join", `{"sessionId":"wf-1"}`)
	readUntil(t, connB, domain.MsgSessionUsers)
	readUntil(t, connA, domain.MsgPresenceJoined)

	require.NoError(t, connB.Close())

	env := readUntil(t, connA, domain.MsgPresenceLeft)
	var who domain.Identity
	require.NoError(t, json.Unmarshal(env.Payload, &who))
	assert.Equal(t, "u-b", who.UserID)

	require.Eventually(t, func() bool {
		members := mgr.Members("wf-1")
		return len(members) == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestUnknownMessageTypeClosesConnection(t *testing.T) {
	mgr := collab.NewManager()
	srv := newTestServer(t, mgr)

	conn := dial(t, srv, "tok-a")
	send(t, conn, "teleport", `{}`)

	// The ack must arrive before the server closes the socket.
	env := readUntil(t, conn, domain.MsgError)
	var payload domain.ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "bad_message", payload.Code)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var next domain.Envelope
	err := conn.ReadJSON(&next)
	require.Error(t, err, "server closes after a protocol violation")
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure),
		"expected a clean close frame, got %v", err)
}
