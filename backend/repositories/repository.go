package repositories

import (
	"context"
	"errors"

	"github.com/PurvDabhi/Task-Management-App/backend/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// TaskRepository persists tasks. Every read and write is scoped to the owning user.
type TaskRepository interface {
	// Create stores a new task and assigns its ID.
	Create(ctx context.Context, task *models.Task) error
	FindOwned(ctx context.Context, ownerID, taskID string) (*models.Task, error)
	List(ctx context.Context, ownerID string, filter models.TaskFilter) ([]models.Task, error)
	// Update overwrites the mutable fields of a task matched by ID and owner.
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, ownerID, taskID string) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}
