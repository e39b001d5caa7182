package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ultravionic/cozyui/internal/auth"
	"github.com/ultravionic/cozyui/pkg/domain"
)

// memUserStore is an in-memory ports.UserStore for tests.
type memUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*domain.User)}
}

func (s *memUserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *memUserStore) Get(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *memUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *memUserStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *memUserStore) List(ctx context.Context) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (s *memUserStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func newService(t *testing.T) (*auth.Service, *memUserStore) {
	t.Helper()
	store := newMemUserStore()
	return auth.NewService(store, []byte("test-secret"), time.Hour), store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "hunter2", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.True(t, user.Active)
	assert.NotEmpty(t, user.Color)
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	token, logged, err := svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotNil(t, logged.LastLogin)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw", "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other", "")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestLogin_BadPassword(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "hunter2", "")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials, "unknown user indistinguishable from bad password")
}

func TestVerify_RoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "hunter2", "")
	require.NoError(t, err)
	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	identity, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, user.Color, identity.Color)
}

func TestVerify_Tampered(t *testing.T) {
	svc, _ := newService(t)
	user, err := svc.Register(context.Background(), "alice", "hunter2", "")
	require.NoError(t, err)
	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	_, err = svc.Verify(token + "x")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	other := auth.NewService(newMemUserStore(), []byte("different-secret"), time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticateConnection_DeactivatedAccount(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "hunter2", "")
	require.NoError(t, err)
	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	identity, err := svc.AuthenticateConnection(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)

	user.Active = false
	require.NoError(t, store.Update(ctx, user))

	_, err = svc.AuthenticateConnection(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "valid token for a deactivated account is rejected")
}
