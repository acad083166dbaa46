package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/PurvDabhi/Task-Management-App/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type taskDocument struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Title       string              `bson:"title"`
	Description string              `bson:"description,omitempty"`
	Status      models.TaskStatus   `bson:"status"`
	Priority    models.TaskPriority `bson:"priority"`
	UserID      string              `bson:"userId"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

func (d *taskDocument) toModel() models.Task {
	return models.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		Priority:    d.Priority,
		UserID:      d.UserID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type MongoTaskRepository struct {
	tasksCollection *mongo.Collection
}

func NewMongoTaskRepository(collection *mongo.Collection) *MongoTaskRepository {
	return &MongoTaskRepository{tasksCollection: collection}
}

// EnsureIndexes creates the owner index used by every task query.
func (r *MongoTaskRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.tasksCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create task index: %w", err)
	}
	return nil
}

func (r *MongoTaskRepository) Create(ctx context.Context, task *models.Task) error {
	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		UserID:      task.UserID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if _, err := r.tasksCollection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	task.ID = doc.ID.Hex()
	return nil
}

func (r *MongoTaskRepository) FindOwned(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	id, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc taskDocument
	err = r.tasksCollection.FindOne(ctx, bson.M{"_id": id, "userId": ownerID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	task := doc.toModel()
	return &task, nil
}

func (r *MongoTaskRepository) List(ctx context.Context, ownerID string, filter models.TaskFilter) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.tasksCollection.Find(ctx, taskQuery(ownerID, filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode task: %w", err)
		}
		tasks = append(tasks, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return tasks, nil
}

func (r *MongoTaskRepository) Update(ctx context.Context, task *models.Task) error {
	id, err := primitive.ObjectIDFromHex(task.ID)
	if err != nil {
		return ErrNotFound
	}

	update := bson.M{"$set": bson.M{
		"title":       task.Title,
		"description": task.Description,
		"status":      task.Status,
		"priority":    task.Priority,
		"updatedAt":   task.UpdatedAt,
	}}
	result, err := r.tasksCollection.UpdateOne(ctx, bson.M{"_id": id, "userId": task.UserID}, update)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoTaskRepository) Delete(ctx context.Context, ownerID, taskID string) error {
	id, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.tasksCollection.DeleteOne(ctx, bson.M{"_id": id, "userId": ownerID})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// taskQuery ANDs the owner constraint with every supplied filter.
func taskQuery(ownerID string, filter models.TaskFilter) bson.M {
	query := bson.M{"userId": ownerID}
	if filter.Search != "" {
		query["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	return query
}
