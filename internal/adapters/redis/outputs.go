package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/ultravionic/cozyui/pkg/domain"
)

// Outputs implements ports.OutputStore.
//
// Key layout:
//
//	<prefix>output:<id>          JSON record
//	<prefix>outputs              zset of ids, score = created_at unix nano
//	<prefix>outputs:wf:<wf-id>   zset of ids per workflow
type Outputs struct {
	base
}

// Create stores a new output record.
func (s *Outputs) Create(ctx context.Context, out *domain.Output) error {
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	score := float64(out.CreatedAt.UnixNano())
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key("output", out.ID), data, 0)
	pipe.ZAdd(ctx, s.key("outputs"), backend.Z{Score: score, Member: out.ID})
	pipe.ZAdd(ctx, s.key("outputs", "wf", out.WorkflowID), backend.Z{Score: score, Member: out.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save output: %w", err)
	}
	return nil
}

// Get retrieves an output by id.
func (s *Outputs) Get(ctx context.Context, id string) (*domain.Output, error) {
	val, err := s.client.Get(ctx, s.key("output", id)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrOutputNotFound
		}
		return nil, fmt.Errorf("get output: %w", err)
	}

	var out domain.Output
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		return nil, fmt.Errorf("unmarshal output: %w", err)
	}
	return &out, nil
}

// ListByWorkflow returns a workflow's outputs, newest first.
func (s *Outputs) ListByWorkflow(ctx context.Context, workflowID string) ([]*domain.Output, error) {
	return s.listIndex(ctx, s.key("outputs", "wf", workflowID))
}

// List returns all outputs, newest first.
func (s *Outputs) List(ctx context.Context) ([]*domain.Output, error) {
	return s.listIndex(ctx, s.key("outputs"))
}

func (s *Outputs) listIndex(ctx context.Context, indexKey string) ([]*domain.Output, error) {
	ids, err := s.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}

	outputs := make([]*domain.Output, 0, len(ids))
	for _, id := range ids {
		out, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrOutputNotFound) {
				continue
			}
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}
