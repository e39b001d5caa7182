// Package redis implements the persistence ports on Redis. Records are
// JSON documents under prefixed keys, with set/zset indexes for
// listings. Tests run against miniredis.
package redis

import (
	"context"

	backend "github.com/redis/go-redis/v9"
)

// base carries the client and key prefix shared by every sub-store.
type base struct {
	client *backend.Client
	prefix string
}

func (b base) key(parts ...string) string {
	k := b.prefix
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += p
	}
	return k
}

// Store bundles the Redis-backed stores behind one client. Users,
// Workflows, and Outputs implement the corresponding ports interfaces.
type Store struct {
	base
	Users     *Users
	Workflows *Workflows
	Outputs   *Outputs
}

// Option configures the Store.
type Option func(*Store)

// WithPrefix sets the key prefix for all records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{base: base{client: client, prefix: "cozyui:"}}
	for _, opt := range opts {
		opt(store)
	}
	store.Users = &Users{store.base}
	store.Workflows = &Workflows{store.base}
	store.Outputs = &Outputs{store.base}
	return store
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
