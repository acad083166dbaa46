package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PurvDabhi/Task-Management-App/backend/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type taskRecord struct {
	ID          string `gorm:"primaryKey;size:36"`
	Title       string `gorm:"not null"`
	Description string
	Status      string    `gorm:"not null;index"`
	Priority    string    `gorm:"not null;index"`
	UserID      string    `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (taskRecord) TableName() string { return "tasks" }

func (r *taskRecord) toModel() models.Task {
	return models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      models.TaskStatus(r.Status),
		Priority:    models.TaskPriority(r.Priority),
		UserID:      r.UserID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type userRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"not null;uniqueIndex"`
	Password  string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (userRecord) TableName() string { return "users" }

func (r *userRecord) toModel() *models.User {
	return &models.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.Password,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// OpenSQLite opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&taskRecord{}, &userRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
	}
	return db, nil
}

type SQLTaskRepository struct {
	db *gorm.DB
}

func NewSQLTaskRepository(db *gorm.DB) *SQLTaskRepository {
	return &SQLTaskRepository{db: db}
}

func (r *SQLTaskRepository) Create(ctx context.Context, task *models.Task) error {
	rec := taskRecord{
		ID:          uuid.New().String(),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		UserID:      task.UserID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	task.ID = rec.ID
	return nil
}

func (r *SQLTaskRepository) FindOwned(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	var rec taskRecord
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", taskID, ownerID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	task := rec.toModel()
	return &task, nil
}

func (r *SQLTaskRepository) List(ctx context.Context, ownerID string, filter models.TaskFilter) ([]models.Task, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", ownerID)
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", string(filter.Priority))
	}

	var recs []taskRecord
	if err := q.Order("created_at ASC, id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}

	// SQLite's LOWER only folds ASCII, so the title search runs here
	search := strings.ToLower(filter.Search)
	tasks := make([]models.Task, 0, len(recs))
	for i := range recs {
		if search != "" && !strings.Contains(strings.ToLower(recs[i].Title), search) {
			continue
		}
		tasks = append(tasks, recs[i].toModel())
	}
	return tasks, nil
}

func (r *SQLTaskRepository) Update(ctx context.Context, task *models.Task) error {
	result := r.db.WithContext(ctx).Model(&taskRecord{}).
		Where("id = ? AND user_id = ?", task.ID, task.UserID).
		Updates(map[string]any{
			"title":       task.Title,
			"description": task.Description,
			"status":      string(task.Status),
			"priority":    string(task.Priority),
			"updated_at":  task.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLTaskRepository) Delete(ctx context.Context, ownerID, taskID string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", taskID, ownerID).Delete(&taskRecord{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type SQLUserRepository struct {
	db *gorm.DB
}

func NewSQLUserRepository(db *gorm.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db}
}

func (r *SQLUserRepository) Create(ctx context.Context, user *models.User) error {
	rec := userRecord{
		ID:        uuid.New().String(),
		Name:      user.Name,
		Email:     user.Email,
		Password:  user.PasswordHash,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	user.ID = rec.ID
	return nil
}

func (r *SQLUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *SQLUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *SQLUserRepository) findOne(ctx context.Context, cond string, arg string) (*models.User, error) {
	var rec userRecord
	err := r.db.WithContext(ctx).Where(cond, arg).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return rec.toModel(), nil
}

func (r *SQLUserRepository) Update(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Model(&userRecord{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"name":       user.Name,
			"email":      user.Email,
			"updated_at": user.UpdatedAt,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
