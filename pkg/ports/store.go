package ports

import (
	"context"

	"github.com/ultravionic/cozyui/pkg/domain"
)

// UserStore persists user accounts.
type UserStore interface {
	// Create stores a new user. Returns domain.ErrUsernameTaken if the
	// username is already registered.
	Create(ctx context.Context, user *domain.User) error

	// Get retrieves a user by id. Returns domain.ErrUserNotFound if absent.
	Get(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by username. Returns
	// domain.ErrUserNotFound if absent.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Update overwrites an existing user record.
	Update(ctx context.Context, user *domain.User) error

	// List returns all users.
	List(ctx context.Context) ([]*domain.User, error)

	// Delete removes a user record.
	Delete(ctx context.Context, id string) error
}

// WorkflowStore persists workflow documents.
type WorkflowStore interface {
	// Create stores a new workflow.
	Create(ctx context.Context, wf *domain.Workflow) error

	// Get retrieves a workflow by id. Returns domain.ErrWorkflowNotFound
	// if absent.
	Get(ctx context.Context, id string) (*domain.Workflow, error)

	// Update overwrites an existing workflow.
	Update(ctx context.Context, wf *domain.Workflow) error

	// Delete removes a workflow.
	Delete(ctx context.Context, id string) error

	// List returns workflows ordered by creation time, newest first.
	List(ctx context.Context, offset, limit int) ([]*domain.Workflow, error)

	// Exists reports whether a workflow id is known. Joins to
	// collaboration sessions are checked against this.
	Exists(ctx context.Context, id string) (bool, error)
}

// OutputStore persists generated artifact records.
type OutputStore interface {
	// Create stores a new output record.
	Create(ctx context.Context, out *domain.Output) error

	// Get retrieves an output by id. Returns domain.ErrOutputNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Output, error)

	// ListByWorkflow returns outputs for one workflow, newest first.
	ListByWorkflow(ctx context.Context, workflowID string) ([]*domain.Output, error)

	// List returns all outputs, newest first.
	List(ctx context.Context) ([]*domain.Output, error)
}
