package repository

import (
	"context"

	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/utils"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create allocates the next task number and inserts the task atomically
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks visible to a user with filtering and optional pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update persists the task's own columns
	Update(ctx context.Context, task *models.Task) error

	// Delete soft deletes a task
	Delete(ctx context.Context, id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	// ViewerID restricts results to tasks the user created or is assigned to
	ViewerID    uint64
	Category    string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	Search      string
	OldestFirst bool
	Pagination  utils.PaginationParams
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email address
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Exists reports whether a user with the given ID exists
	Exists(ctx context.Context, id uint64) (bool, error)

	// List returns all users ordered by name
	List(ctx context.Context) ([]models.User, error)
}
