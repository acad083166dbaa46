// Command smoke walks the API end to end: register, login, profile, create a
// task and list tasks. Every step is logged to stdout and appended to a file.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PurvDabhi/Task-Management-App/backend/models"
	"github.com/PurvDabhi/Task-Management-App/client/api"
	"github.com/PurvDabhi/Task-Management-App/client/credentials"
	"github.com/PurvDabhi/Task-Management-App/logging"
)

func main() {
	apiBase := flag.String("api", "http://localhost:5001/api", "API base URL")
	logFile := flag.String("log", "test_logs.txt", "file the run is appended to")
	email := flag.String("email", "test@example.com", "account email")
	password := flag.String("password", "password123", "account password")
	tokenFile := flag.String("token-file", "", "persist the issued token here instead of memory")
	flag.Parse()

	logging.InitLogger(logging.Options{SystemName: "smoke", File: *logFile})

	var creds credentials.Holder = credentials.NewMemory("")
	if *tokenFile != "" {
		store, err := credentials.OpenFileStore(*tokenFile)
		if err != nil {
			logging.Logger.Fatalf("Event ID: SMOKE_CREDENTIALS_ERROR, Description: %v", err)
		}
		creds = store
	}

	client, err := api.New(api.Config{
		BaseURL:     *apiBase,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		Credentials: creds,
	})
	if err != nil {
		logging.Logger.Fatalf("Event ID: SMOKE_CONFIG_ERROR, Description: %v", err)
	}

	logging.Logger.Info("Event ID: SMOKE_START, Description: Starting API tests...")
	ok := run(context.Background(), client, *email, *password)
	logging.Logger.Info("Event ID: SMOKE_DONE, Description: API tests completed.")
	if !ok {
		os.Exit(1)
	}
}

func run(ctx context.Context, client *api.Client, email, password string) bool {
	logging.Logger.Info("Event ID: SMOKE_STEP, Description: Testing user registration...")
	reg, err := client.Register(ctx, "Test User", email, password)
	switch {
	case err == nil:
		logging.Logger.Infof("Event ID: SMOKE_STEP, Description: Registration: %d - registered %s", http.StatusCreated, reg.User.Email)
	case api.StatusCode(err) == http.StatusBadRequest && strings.Contains(err.Error(), "already exists"):
		logging.Logger.Infof("Event ID: SMOKE_STEP, Description: Registration: %d - user already exists, continuing", http.StatusBadRequest)
	default:
		return report(err)
	}

	logging.Logger.Info("Event ID: SMOKE_STEP, Description: Testing user login...")
	if _, err := client.Login(ctx, email, password); err != nil {
		return report(err)
	}
	logging.Logger.Infof("Event ID: SMOKE_STEP, Description: Login: %d - Token received", http.StatusOK)

	logging.Logger.Info("Event ID: SMOKE_STEP, Description: Testing profile endpoints...")
	if _, err := client.Profile(ctx); err != nil {
		return report(err)
	}
	logging.Logger.Infof("Event ID: SMOKE_STEP, Description: Profile GET: %d", http.StatusOK)

	logging.Logger.Info("Event ID: SMOKE_STEP, Description: Testing task endpoints...")
	_, err = client.CreateTask(ctx, api.NewTask{
		Title:       "Test Task",
		Description: "Test Description",
		Status:      models.StatusPending,
		Priority:    models.PriorityMedium,
	})
	if err != nil {
		return report(err)
	}
	logging.Logger.Infof("Event ID: SMOKE_STEP, Description: Task CREATE: %d", http.StatusCreated)

	tasks, err := client.ListTasks(ctx, models.TaskFilter{})
	if err != nil {
		return report(err)
	}
	logging.Logger.Infof("Event ID: SMOKE_STEP, Description: Tasks GET: %d - %d tasks found", http.StatusOK, len(tasks))
	return true
}

func report(err error) bool {
	logging.Logger.Errorf("Event ID: SMOKE_ERROR, Description: Error: %v", err)

	var httpErr *api.HTTPError
	var transportErr *api.TransportError
	switch {
	case errors.As(err, &httpErr):
		logging.Logger.Errorf("Event ID: SMOKE_ERROR, Description: Response status: %d", httpErr.StatusCode)
		logging.Logger.Errorf("Event ID: SMOKE_ERROR, Description: Response data: %s", httpErr.Message)
	case errors.As(err, &transportErr):
		logging.Logger.Error("Event ID: SMOKE_ERROR, Description: No response received - server may not be running")
	}
	return false
}
