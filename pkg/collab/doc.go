// Package collab is the real-time collaboration core: a session-scoped
// presence and event-broadcast engine. It tracks which connection
// belongs to which user and workflow session, fans interaction events
// out to the other members of the sender's session, and keeps presence
// consistent as connections join, leave, or drop.
//
// The core is transport-agnostic. Connections are opaque ids paired
// with a ports.Outbox delivery sink; the websocket adapter under
// internal/adapters/ws drives the Manager's transition methods from its
// read loop. All state lives inside the Manager's registries, so
// multiple isolated instances can coexist in one process.
package collab
