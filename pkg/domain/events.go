package domain

import "encoding/json"

// EventType tags an inbound interaction event. Payloads are opaque to
// the server and forwarded verbatim, so adding a new interaction type
// only requires a new tag here and in the outbound mapping.
type EventType string

const (
	EventCursorMove     EventType = "cursor_move"
	EventNodeSelect     EventType = "node_select"
	EventWorkflowUpdate EventType = "workflow_update"
)

// Outbound message types delivered to session members.
const (
	MsgCursorUpdate   = "cursor_update"
	MsgNodeUpdate     = "node_update"
	MsgWorkflowChange = "workflow_change"
	MsgPresenceJoined = "presence_joined"
	MsgPresenceLeft   = "presence_left"
	MsgSessionUsers   = "session_users"
	MsgError          = "error"
)

// Outbound returns the outbound message type an inbound event is
// rebroadcast as, or "" for an unknown event type.
func (t EventType) Outbound() string {
	switch t {
	case EventCursorMove:
		return MsgCursorUpdate
	case EventNodeSelect:
		return MsgNodeUpdate
	case EventWorkflowUpdate:
		return MsgWorkflowChange
	}
	return ""
}

// Envelope is the framed message exchanged over a collaboration
// connection, in both directions. SenderUserID is set by the server on
// rebroadcast; it is never trusted from the client.
type Envelope struct {
	Type         string          `json:"type"`
	SenderUserID string          `json:"senderUserId,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// Encode marshals the envelope for transport.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// ErrorPayload is the payload of an error acknowledgment sent back to
// the offending client so it can resynchronize instead of diverging.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope builds an error acknowledgment frame.
func ErrorEnvelope(code, message string) Envelope {
	raw, _ := json.Marshal(ErrorPayload{Code: code, Message: message})
	return Envelope{Type: MsgError, Payload: raw}
}

// PresenceEnvelope builds a presence_joined or presence_left frame for
// the given member identity.
func PresenceEnvelope(msgType string, id Identity) Envelope {
	raw, _ := json.Marshal(id)
	return Envelope{Type: msgType, SenderUserID: id.UserID, Payload: raw}
}
