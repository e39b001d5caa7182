package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ultravionic/cozyui/pkg/collab"
	"github.com/ultravionic/cozyui/pkg/domain"
)

const (
	// writeWait bounds a single write so one stuck peer cannot pin the pump.
	writeWait = 10 * time.Second

	// maxMessageSize caps inbound frames; workflow snapshots are the
	// largest legitimate payload.
	maxMessageSize = 256 * 1024
)

// errSlowConsumer is returned by Send when the outbound queue is full.
// The frame is dropped for this member only.
var errSlowConsumer = errors.New("send buffer full")

// errClosed is returned by Send after the connection was torn down.
var errClosed = errors.New("connection closed")

// client binds one websocket connection to the lifecycle manager. Its
// read loop is the only goroutine feeding this connection's events into
// the core, which gives FIFO ordering per sender for free.
type client struct {
	id       string
	conn     *websocket.Conn
	mgr      *collab.Manager
	logger   *slog.Logger
	pongWait time.Duration

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(id string, conn *websocket.Conn, mgr *collab.Manager, logger *slog.Logger, pongWait time.Duration, buffer int) *client {
	return &client{
		id:       id,
		conn:     conn,
		mgr:      mgr,
		logger:   logger,
		pongWait: pongWait,
		send:     make(chan []byte, buffer),
	}
}

// Send implements ports.Outbox. It never blocks: a full queue or a
// closed connection drops the frame with an error.
func (c *client) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClosed
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return errSlowConsumer
	}
}

// Close implements ports.Outbox. Safe to call more than once.
func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.send)
	return nil
}

// sendEnvelope encodes and enqueues a frame for this connection.
func (c *client) sendEnvelope(env domain.Envelope) {
	msg, err := env.Encode()
	if err != nil {
		return
	}
	if err := c.Send(msg); err != nil {
		c.logger.Debug("dropped frame", "conn", c.id, "type", env.Type, "err", err)
	}
}

func (c *client) sendError(code, message string) {
	c.sendEnvelope(domain.ErrorEnvelope(code, message))
}

// readPump reads frames off the wire and drives lifecycle transitions.
// It exits on transport error, idle timeout, or protocol violation;
// exit always funnels into OnDisconnect. It never closes the socket
// itself: closing the outbox lets writePump drain any queued error
// acks before it shuts the connection down.
func (c *client) readPump() {
	defer func() {
		c.mgr.OnDisconnect(c.id)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		c.mgr.Touch(c.id)
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("read failed", "conn", c.id, "err", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))

		var frame domain.Envelope
		if err := json.Unmarshal(raw, &frame); err != nil {
			// Malformed frames are protocol violations; drop the connection.
			c.sendError("bad_message", "malformed frame")
			return
		}

		if !c.dispatch(frame) {
			return
		}
	}
}

// dispatch handles one inbound frame. Returning false terminates the
// connection.
func (c *client) dispatch(frame domain.Envelope) bool {
	switch frame.Type {
	case "join":
		var payload struct {
			SessionID string `json:"sessionId"`
		}
		if err := json.Unmarshal(frame.Payload, &payload); err != nil || payload.SessionID == "" {
			c.sendError("bad_message", "join requires a sessionId")
			return false
		}

		err := c.mgr.OnJoin(context.Background(), c.id, payload.SessionID)
		switch {
		case err == nil:
			return true
		case errors.Is(err, domain.ErrUnknownSession):
			// Logical error: reject, keep the connection open.
			c.sendError("unknown_session", "workflow "+payload.SessionID+" does not exist")
			return true
		default:
			c.logger.Warn("join failed", "conn", c.id, "session", payload.SessionID, "err", err)
			c.sendError("join_failed", "join rejected")
			return false
		}

	case string(domain.EventCursorMove), string(domain.EventNodeSelect), string(domain.EventWorkflowUpdate):
		_, err := c.mgr.OnEvent(c.id, domain.EventType(frame.Type), frame.Payload)
		if errors.Is(err, domain.ErrNotJoined) {
			// Tell the sender so it can re-join instead of silently diverging.
			c.sendError("not_joined", "join a session before sending events")
			return true
		}
		if err != nil {
			c.logger.Warn("event rejected", "conn", c.id, "type", frame.Type, "err", err)
			return false
		}
		return true

	default:
		c.sendError("bad_message", "unknown message type "+frame.Type)
		return false
	}
}

// writePump drains the outbound queue onto the wire and keeps the
// connection alive with pings. It owns the socket: once the queue is
// closed it finishes writing what remains, sends a close frame, and
// tears the connection down.
func (c *client) writePump() {
	pingPeriod := c.pongWait * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
