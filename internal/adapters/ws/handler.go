// Package ws is the websocket transport for the collaboration core.
// Each accepted connection is authenticated during the handshake,
// registered with the lifecycle manager, and driven by a read/write
// pump pair until the transport closes.
package ws

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ultravionic/cozyui/internal/logging"
	"github.com/ultravionic/cozyui/pkg/collab"
	"github.com/ultravionic/cozyui/pkg/ports"
)

// Server upgrades HTTP requests to collaboration connections.
type Server struct {
	mgr         *collab.Manager
	auth        ports.Authenticator
	logger      *slog.Logger
	idleTimeout time.Duration
	sendBuffer  int
	upgrader    websocket.Upgrader
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithIdleTimeout sets how long a connection may stay silent before the
// read deadline drops it.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.idleTimeout = d
	}
}

// WithSendBuffer sets the per-connection outbound queue depth.
func WithSendBuffer(n int) Option {
	return func(s *Server) {
		s.sendBuffer = n
	}
}

// New creates a websocket server over the given manager and authenticator.
func New(mgr *collab.Manager, auth ports.Authenticator, opts ...Option) *Server {
	s := &Server{
		mgr:         mgr,
		auth:        auth,
		logger:      logging.NewNop(),
		idleTimeout: 60 * time.Second,
		sendBuffer:  256,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Access is gated by the bearer token, not the Origin header;
		// the editor frontend is served from a separate origin.
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return s
}

// ServeHTTP authenticates and admits one connection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	identity, err := s.auth.AuthenticateConnection(r.Context(), token)
	if err != nil {
		// No side effects: the connection never reaches the registry.
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	connID := uuid.NewString()
	c := newClient(connID, conn, s.mgr, s.logger, s.idleTimeout, s.sendBuffer)

	s.mgr.OnConnect(connID, c)
	if err := s.mgr.OnIdentify(connID, identity); err != nil {
		s.mgr.OnDisconnect(connID)
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// bearerToken pulls the credential from ?token= or the Authorization
// header. Browsers cannot set headers on websocket dials, so the query
// parameter is the common path.
func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
