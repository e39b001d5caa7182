package ports

// Outbox is the delivery sink for a single connection. Implementations
// wrap the transport's outbound queue.
type Outbox interface {
	// Send enqueues one frame for delivery. It must not block: a slow
	// or closed connection returns an error immediately and the frame
	// is dropped for that member only.
	Send(msg []byte) error

	// Close tears down the transport side of the connection. It must be
	// safe to call more than once; Send after Close returns an error.
	Close() error
}
