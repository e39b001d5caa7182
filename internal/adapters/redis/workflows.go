package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/ultravionic/cozyui/pkg/domain"
)

// Workflows implements ports.WorkflowStore.
//
// Key layout:
//
//	<prefix>workflow:<id>   JSON record
//	<prefix>workflows       zset of ids, score = created_at unix
type Workflows struct {
	base
}

// Create stores a new workflow.
func (s *Workflows) Create(ctx context.Context, wf *domain.Workflow) error {
	data, err := json.Marshal(wf)
	if err != nil {
		return fmt.Errorf("marshal workflow: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key("workflow", wf.ID), data, 0)
	pipe.ZAdd(ctx, s.key("workflows"), backend.Z{
		Score:  float64(wf.CreatedAt.Unix()),
		Member: wf.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save workflow: %w", err)
	}
	return nil
}

// Get retrieves a workflow by id.
func (s *Workflows) Get(ctx context.Context, id string) (*domain.Workflow, error) {
	val, err := s.client.Get(ctx, s.key("workflow", id)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("get workflow: %w", err)
	}

	var wf domain.Workflow
	if err := json.Unmarshal([]byte(val), &wf); err != nil {
		return nil, fmt.Errorf("unmarshal workflow: %w", err)
	}
	return &wf, nil
}

// Update overwrites an existing workflow.
func (s *Workflows) Update(ctx context.Context, wf *domain.Workflow) error {
	exists, err := s.Exists(ctx, wf.ID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrWorkflowNotFound
	}

	data, err := json.Marshal(wf)
	if err != nil {
		return fmt.Errorf("marshal workflow: %w", err)
	}
	if err := s.client.Set(ctx, s.key("workflow", wf.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("save workflow: %w", err)
	}
	return nil
}

// Delete removes a workflow and its index entry.
func (s *Workflows) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key("workflow", id))
	pipe.ZRem(ctx, s.key("workflows"), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	return nil
}

// List returns workflows newest first.
func (s *Workflows) List(ctx context.Context, offset, limit int) ([]*domain.Workflow, error) {
	if limit <= 0 {
		limit = 100
	}
	ids, err := s.client.ZRevRange(ctx, s.key("workflows"), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}

	workflows := make([]*domain.Workflow, 0, len(ids))
	for _, id := range ids {
		wf, err := s.Get(ctx, id)
		if err != nil {
			// Index can briefly outlive a deleted record.
			if errors.Is(err, domain.ErrWorkflowNotFound) {
				continue
			}
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, nil
}

// Exists reports whether a workflow id is known.
func (s *Workflows) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key("workflow", id)).Result()
	if err != nil {
		return false, fmt.Errorf("check workflow: %w", err)
	}
	return n > 0, nil
}
