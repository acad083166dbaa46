package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/PurvDabhi/Task-Management-App/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestTaskQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter models.TaskFilter
		want   bson.M
	}{
		{
			name:   "owner only",
			filter: models.TaskFilter{},
			want:   bson.M{"userId": "alice"},
		},
		{
			name:   "all filters",
			filter: models.TaskFilter{Search: "milk", Status: models.StatusPending, Priority: models.PriorityHigh},
			want: bson.M{
				"userId":   "alice",
				"title":    primitive.Regex{Pattern: "milk", Options: "i"},
				"status":   models.StatusPending,
				"priority": models.PriorityHigh,
			},
		},
		{
			name:   "search metacharacters are quoted",
			filter: models.TaskFilter{Search: "a.b*(c)"},
			want: bson.M{
				"userId": "alice",
				"title":  primitive.Regex{Pattern: `a\.b\*\(c\)`, Options: "i"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, taskQuery("alice", tt.filter))
		})
	}
}

func taskDoc(id primitive.ObjectID, title string, at time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: title},
		{Key: "status", Value: "pending"},
		{Key: "priority", Value: "high"},
		{Key: "userId", Value: "alice"},
		{Key: "createdAt", Value: at},
		{Key: "updatedAt", Value: at},
	}
}

func TestMongoTaskRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("create assigns id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoTaskRepository(mt.Coll)

		task := &models.Task{Title: "Buy milk", Status: models.StatusPending, Priority: models.PriorityHigh, UserID: "alice"}
		require.NoError(mt, repo.Create(context.Background(), task))
		_, err := primitive.ObjectIDFromHex(task.ID)
		assert.NoError(mt, err)
	})

	mt.Run("find owned decodes document", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.tasks", mtest.FirstBatch, taskDoc(id, "Buy milk", at)))
		repo := NewMongoTaskRepository(mt.Coll)

		task, err := repo.FindOwned(context.Background(), "alice", id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), task.ID)
		assert.Equal(mt, "Buy milk", task.Title)
		assert.Equal(mt, models.PriorityHigh, task.Priority)
		assert.True(mt, task.CreatedAt.Equal(at))
	})

	mt.Run("find owned without match", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.tasks", mtest.FirstBatch))
		repo := NewMongoTaskRepository(mt.Coll)

		_, err := repo.FindOwned(context.Background(), "alice", primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("malformed id is not found", func(mt *mtest.T) {
		repo := NewMongoTaskRepository(mt.Coll)

		_, err := repo.FindOwned(context.Background(), "alice", "not-an-object-id")
		assert.ErrorIs(mt, err, ErrNotFound)
		assert.ErrorIs(mt, repo.Delete(context.Background(), "alice", "not-an-object-id"), ErrNotFound)
	})

	mt.Run("list reads every batch", func(mt *mtest.T) {
		first := mtest.CreateCursorResponse(1, "db.tasks", mtest.FirstBatch,
			taskDoc(primitive.NewObjectID(), "Buy milk", at),
			taskDoc(primitive.NewObjectID(), "Call mom", at.Add(time.Minute)))
		last := mtest.CreateCursorResponse(0, "db.tasks", mtest.NextBatch)
		mt.AddMockResponses(first, last)
		repo := NewMongoTaskRepository(mt.Coll)

		tasks, err := repo.List(context.Background(), "alice", models.TaskFilter{})
		require.NoError(mt, err)
		require.Len(mt, tasks, 2)
		assert.Equal(mt, "Buy milk", tasks[0].Title)
		assert.Equal(mt, "Call mom", tasks[1].Title)
	})

	mt.Run("list with no results is empty", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.tasks", mtest.FirstBatch))
		repo := NewMongoTaskRepository(mt.Coll)

		tasks, err := repo.List(context.Background(), "alice", models.TaskFilter{Search: "x"})
		require.NoError(mt, err)
		assert.NotNil(mt, tasks)
		assert.Empty(mt, tasks)
	})

	mt.Run("update without match", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))
		repo := NewMongoTaskRepository(mt.Coll)

		task := &models.Task{ID: primitive.NewObjectID().Hex(), Title: "x", UserID: "bob"}
		assert.ErrorIs(mt, repo.Update(context.Background(), task), ErrNotFound)
	})

	mt.Run("update with match", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		repo := NewMongoTaskRepository(mt.Coll)

		task := &models.Task{ID: primitive.NewObjectID().Hex(), Title: "x", UserID: "alice"}
		assert.NoError(mt, repo.Update(context.Background(), task))
	})

	mt.Run("delete twice", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)
		repo := NewMongoTaskRepository(mt.Coll)
		id := primitive.NewObjectID().Hex()

		require.NoError(mt, repo.Delete(context.Background(), "alice", id))
		assert.ErrorIs(mt, repo.Delete(context.Background(), "alice", id), ErrNotFound)
	})
}

func TestMongoUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		repo := NewMongoUserRepository(mt.Coll)

		err := repo.Create(context.Background(), &models.User{Name: "Test", Email: "test@example.com"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("find by email", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Test User"},
			{Key: "email", Value: "test@example.com"},
			{Key: "password", Value: "hash"},
		}))
		repo := NewMongoUserRepository(mt.Coll)

		user, err := repo.FindByEmail(context.Background(), "test@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), user.ID)
		assert.Equal(mt, "hash", user.PasswordHash)
	})

	mt.Run("find by id without match", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch))
		repo := NewMongoUserRepository(mt.Coll)

		_, err := repo.FindByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}
