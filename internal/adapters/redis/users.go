package redis

import (
	"context"
	"encoding/json"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/ultravionic/cozyui/pkg/domain"
)

// Users implements ports.UserStore.
//
// Key layout:
//
//	<prefix>user:<id>            JSON record
//	<prefix>user:byname:<name>   username -> id
//	<prefix>users                set of ids
type Users struct {
	base
}

// Create stores a new user, claiming the username atomically.
func (s *Users) Create(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key("user", "byname", user.Username), user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("claim username: %w", err)
	}
	if !ok {
		return domain.ErrUsernameTaken
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key("user", user.ID), data, 0)
	pipe.SAdd(ctx, s.key("users"), user.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// Get retrieves a user by id.
func (s *Users) Get(ctx context.Context, id string) (*domain.User, error) {
	val, err := s.client.Get(ctx, s.key("user", id)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(val), &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &user, nil
}

// GetByUsername retrieves a user through the username index.
func (s *Users) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	id, err := s.client.Get(ctx, s.key("user", "byname", username)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve username: %w", err)
	}
	return s.Get(ctx, id)
}

// Update overwrites a user record, moving the username index if the
// username changed.
func (s *Users) Update(ctx context.Context, user *domain.User) error {
	existing, err := s.Get(ctx, user.ID)
	if err != nil {
		return err
	}

	if existing.Username != user.Username {
		ok, err := s.client.SetNX(ctx, s.key("user", "byname", user.Username), user.ID, 0).Result()
		if err != nil {
			return fmt.Errorf("claim username: %w", err)
		}
		if !ok {
			return domain.ErrUsernameTaken
		}
		if err := s.client.Del(ctx, s.key("user", "byname", existing.Username)).Err(); err != nil {
			return fmt.Errorf("release username: %w", err)
		}
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.client.Set(ctx, s.key("user", user.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// List returns all users.
func (s *Users) List(ctx context.Context) ([]*domain.User, error) {
	ids, err := s.client.SMembers(ctx, s.key("users")).Result()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key("user", id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	users := make([]*domain.User, 0, len(vals))
	for _, val := range vals {
		raw, ok := val.(string)
		if !ok {
			continue
		}
		var user domain.User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return nil, fmt.Errorf("unmarshal user: %w", err)
		}
		users = append(users, &user)
	}
	return users, nil
}

// Delete removes a user and its indexes.
func (s *Users) Delete(ctx context.Context, id string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key("user", id))
	pipe.Del(ctx, s.key("user", "byname", user.Username))
	pipe.SRem(ctx, s.key("users"), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
