package ports

import (
	"context"
	"encoding/json"
)

// Job statuses reported by the generation engine.
const (
	JobPending   = "pending"
	JobCompleted = "completed"
)

// JobStatus describes a queued generation job. Outputs is the engine's
// artifact map, opaque to the server, present once the job completed.
type JobStatus struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Outputs json.RawMessage `json:"outputs,omitempty"`
}

// Generator is the downstream image/video generation engine. It accepts
// a workflow graph and reports job progress by id.
type Generator interface {
	// Queue submits a graph for execution and returns the job id.
	Queue(ctx context.Context, graph json.RawMessage) (string, error)

	// Status reports the current state of a queued job.
	Status(ctx context.Context, jobID string) (*JobStatus, error)
}
