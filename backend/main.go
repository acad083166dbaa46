package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PurvDabhi/Task-Management-App/backend/config"
	"github.com/PurvDabhi/Task-Management-App/backend/handlers"
	"github.com/PurvDabhi/Task-Management-App/backend/repositories"
	"github.com/PurvDabhi/Task-Management-App/backend/services"
	"github.com/PurvDabhi/Task-Management-App/logging"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type stores struct {
	tasks repositories.TaskRepository
	users repositories.UserRepository
	close func()
}

func openMongo(ctx context.Context, cfg config.MongoConfig) (*stores, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("database connection for MongoDB failed: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB connection ping error: %w", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s", cfg.URI)

	db := client.Database(cfg.DBName)
	tasks := repositories.NewMongoTaskRepository(db.Collection(cfg.TasksCollection))
	users := repositories.NewMongoUserRepository(db.Collection(cfg.UsersCollection))
	for _, ensure := range []func(context.Context) error{tasks.EnsureIndexes, users.EnsureIndexes} {
		if err := ensure(ctx); err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
	}
	logging.Logger.Infof("Event ID: DB_COLLECTION_SET, Description: Using MongoDB collections %s/%s and %s/%s",
		cfg.DBName, cfg.TasksCollection, cfg.DBName, cfg.UsersCollection)

	return &stores{
		tasks: tasks,
		users: users,
		close: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				logging.Logger.Errorf("Event ID: DB_DISCONNECT_ERROR, Description: Error disconnecting from MongoDB: %v", err)
			}
		},
	}, nil
}

func openSQLite(path string) (*stores, error) {
	db, err := repositories.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Using SQLite database %s", path)

	return &stores{
		tasks: repositories.NewSQLTaskRepository(db),
		users: repositories.NewSQLUserRepository(db),
		close: func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		},
	}, nil
}

func main() {
	cfg, cfgErr := config.Load()

	logOpts := logging.Options{SystemName: "task-manager-api"}
	if cfg != nil {
		logOpts.Level = cfg.LogLevel
		logOpts.File = cfg.LogFile
	}
	logging.InitLogger(logOpts)
	if cfgErr != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: %v", cfgErr)
	}

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Manager API...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	var st *stores
	var err error
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		st, err = openSQLite(cfg.SQLitePath)
	default:
		st, err = openMongo(connectCtx, cfg.Mongo)
	}
	cancel()
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: %v", err)
	}
	defer st.close()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	userService := services.NewUserService(st.users, jwtService)
	taskService := services.NewTaskService(st.tasks)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handlers.NewRouter(userService, taskService, cfg.CORSOrigin),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			logging.Logger.Errorf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
			return
		}
	case <-ctx.Done():
	}

	logging.Logger.Info("Event ID: SERVER_SHUTDOWN, Description: Shutting down server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_ERROR, Description: Graceful shutdown failed: %v", err)
	}
	logging.Logger.Info("Event ID: SERVER_STOPPED, Description: Server stopped")
}
