package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PurvDabhi/Task-Management-App/backend/models"
	"github.com/PurvDabhi/Task-Management-App/backend/repositories"
	"github.com/PurvDabhi/Task-Management-App/logging"

	"github.com/sirupsen/logrus"
)

// TaskInput is the body of a create request. Status and priority fall back to
// pending and medium when left empty.
type TaskInput struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"max=2000"`
	Status      models.TaskStatus   `json:"status" validate:"required,oneof=pending in-progress completed"`
	Priority    models.TaskPriority `json:"priority" validate:"required,oneof=low medium high"`
}

type TaskService struct {
	tasks repositories.TaskRepository
	now   func() time.Time
}

func NewTaskService(tasks repositories.TaskRepository) *TaskService {
	return &TaskService{tasks: tasks, now: time.Now}
}

// SetClock replaces the time source used for created/updated timestamps.
func (s *TaskService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *TaskService) timestamp() time.Time {
	// millisecond precision is what the document store keeps
	return s.now().UTC().Truncate(time.Millisecond)
}

// List returns the owner's tasks matching every supplied filter.
func (s *TaskService) List(ctx context.Context, ownerID string, filter models.TaskFilter) ([]models.Task, error) {
	verr := &ValidationError{}
	if filter.Status != "" && !filter.Status.Valid() {
		verr.Fields = append(verr.Fields, FieldError{Field: "status", Message: fieldMessage("oneof", "pending in-progress completed")})
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		verr.Fields = append(verr.Fields, FieldError{Field: "priority", Message: fieldMessage("oneof", "low medium high")})
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	tasks, err := s.tasks.List(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (s *TaskService) Create(ctx context.Context, ownerID string, input TaskInput) (*models.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.Status == "" {
		input.Status = models.StatusPending
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	now := s.timestamp()
	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	logging.Logger.WithFields(logrus.Fields{"user": ownerID, "task": task.ID}).
		Info("Event ID: TASK_CREATED, Description: Task created")
	return task, nil
}

// Update applies the supplied fields of patch to a task owned by ownerID.
// A task that does not exist and a task owned by someone else both yield ErrNotFound.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID string, patch models.TaskPatch) (*models.Task, error) {
	task, err := s.tasks.FindOwned(ctx, ownerID, taskID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		patch.Description = &description
	}
	patch.Apply(task)

	if err := validateStruct(TaskInput{
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
	}); err != nil {
		return nil, err
	}

	task.UpdatedAt = s.timestamp()
	err = s.tasks.Update(ctx, task)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	logging.Logger.WithFields(logrus.Fields{"user": ownerID, "task": task.ID}).
		Info("Event ID: TASK_UPDATED, Description: Task updated")
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, taskID string) error {
	err := s.tasks.Delete(ctx, ownerID, taskID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	logging.Logger.WithFields(logrus.Fields{"user": ownerID, "task": taskID}).
		Info("Event ID: TASK_DELETED, Description: Task deleted")
	return nil
}
