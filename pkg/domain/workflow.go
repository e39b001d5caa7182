package domain

import (
	"encoding/json"
	"time"
)

// Workflow is a persisted node graph. Graph is the editor's JSON
// document; the server stores and relays it without interpreting it.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Graph       json.RawMessage `json:"graph"`
	OwnerID     string          `json:"owner_id"`
	Public      bool            `json:"public"`
	Template    bool            `json:"template"`
	Tags        []string        `json:"tags,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at,omitempty"`
}

// Output is a record of a generated artifact tied to a workflow.
// Metadata is the engine's sidecar blob (seed, sampler, timings); the
// server stores it without interpreting it.
type Output struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id"`
	UserID      string          `json:"user_id"`
	Filename    string          `json:"filename"`
	FileType    string          `json:"file_type"`
	FileSize    int64           `json:"file_size"`
	Description string          `json:"description,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
