package ports

import (
	"context"

	"github.com/ultravionic/cozyui/pkg/domain"
)

// Authenticator verifies a credential token presented during the
// connection handshake. It is invoked exactly once per connection,
// before the connection is admitted to the presence registry.
type Authenticator interface {
	// AuthenticateConnection returns the verified identity for the
	// token, or domain.ErrUnauthorized.
	AuthenticateConnection(ctx context.Context, token string) (domain.Identity, error)
}
