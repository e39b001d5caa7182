// Package domain contains the core value types shared across the
// collaboration engine and its adapters: user identities, workflows,
// generated outputs, and the wire envelope relayed between session
// members. Types here have no behavior beyond validation and carry no
// dependencies on transports or stores.
package domain
