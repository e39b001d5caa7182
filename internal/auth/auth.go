// Package auth issues and verifies the bearer tokens that gate both
// the HTTP surface and the collaboration handshake, and owns password
// hashing for user accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ultravionic/cozyui/internal/logging"
	"github.com/ultravionic/cozyui/pkg/domain"
	"github.com/ultravionic/cozyui/pkg/ports"
)

// cursorPalette is cycled through for new accounts so collaborators get
// distinct cursor colors without picking one.
var cursorPalette = []string{
	"#3498db", "#e74c3c", "#2ecc71", "#9b59b6",
	"#f39c12", "#1abc9c", "#e67e22", "#34495e",
}

// claims carried inside an access token.
type claims struct {
	jwt.RegisteredClaims
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	Color       string `json:"color"`
	Role        string `json:"role"`
}

// Service authenticates users and connections.
type Service struct {
	users  ports.UserStore
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates an auth service signing tokens with secret for ttl.
func NewService(users ports.UserStore, secret []byte, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		users:  users,
		secret: secret,
		ttl:    ttl,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new active account with the default "user" role.
func (s *Service) Register(ctx context.Context, username, password, email string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
		Color:        pickColor(username),
		Role:         domain.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user", user.ID, "username", user.Username)
	return user, nil
}

// Login verifies credentials and returns an access token plus the
// account. Inactive accounts and bad passwords both map to
// domain.ErrInvalidCredentials so callers cannot probe for usernames.
func (s *Service) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !user.Active {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warn("record last login", "user", user.ID, "err", err)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// IssueToken signs an access token for the account.
func (s *Service) IssueToken(user *domain.User) (string, error) {
	now := time.Now()
	identity := domain.IdentityOf(user)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Username:    identity.Username,
		DisplayName: identity.DisplayName,
		Color:       identity.Color,
		Role:        identity.Role,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the identity baked
// into it. Any failure maps to domain.ErrUnauthorized.
func (s *Service) Verify(tokenString string) (domain.Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %s", domain.ErrUnauthorized, err)
	}

	return domain.Identity{
		UserID:      c.Subject,
		Username:    c.Username,
		DisplayName: c.DisplayName,
		Color:       c.Color,
		Role:        c.Role,
	}, nil
}

// AuthenticateConnection implements ports.Authenticator for the
// collaboration handshake. The account is re-read so a deactivation
// takes effect on the next connect even if the token is still valid.
func (s *Service) AuthenticateConnection(ctx context.Context, token string) (domain.Identity, error) {
	identity, err := s.Verify(token)
	if err != nil {
		return domain.Identity{}, err
	}

	user, err := s.users.Get(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Identity{}, domain.ErrUnauthorized
		}
		return domain.Identity{}, err
	}
	if !user.Active {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return domain.IdentityOf(user), nil
}

func pickColor(username string) string {
	h := fnv.New32a()
	h.Write([]byte(username))
	return cursorPalette[h.Sum32()%uint32(len(cursorPalette))]
}
