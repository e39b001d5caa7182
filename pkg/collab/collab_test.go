package collab_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/ultravionic/cozyui/pkg/domain"
)

// fakeOutbox records decoded frames. Setting failing simulates a member
// whose transport just closed.
type fakeOutbox struct {
	mu      sync.Mutex
	frames  []domain.Envelope
	failing bool
	closed  bool
}

func (f *fakeOutbox) Send(msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing || f.closed {
		return errors.New("transport closed")
	}
	var env domain.Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return err
	}
	f.frames = append(f.frames, env)
	return nil
}

func (f *fakeOutbox) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeOutbox) byType(msgType string) []domain.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []domain.Envelope
	for _, env := range f.frames {
		if env.Type == msgType {
			matched = append(matched, env)
		}
	}
	return matched
}

func (f *fakeOutbox) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// allowAll accepts every session id.
type allowAll struct{}

func (allowAll) Exists(ctx context.Context, sessionID string) (bool, error) {
	return true, nil
}

// fixedSessions only accepts the listed session ids.
type fixedSessions map[string]bool

func (f fixedSessions) Exists(ctx context.Context, sessionID string) (bool, error) {
	return f[sessionID], nil
}

func identity(userID string) domain.Identity {
	return domain.Identity{
		UserID:      userID,
		Username:    userID,
		DisplayName: userID,
		Color:       "#3498db",
	}
}
