// Package api is the typed HTTP client for the task manager REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PurvDabhi/Task-Management-App/backend/models"
	"github.com/PurvDabhi/Task-Management-App/client/credentials"
	"github.com/PurvDabhi/Task-Management-App/logging"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const maxResponseBytes = 1 << 20

type Config struct {
	// BaseURL includes the /api prefix, e.g. http://localhost:5001/api.
	BaseURL     string
	HTTPClient  *http.Client
	Credentials credentials.Holder
	// MaxConsecutiveFailures trips the breaker once exceeded. Defaults to 3.
	MaxConsecutiveFailures uint32
	// BreakerTimeout is how long the breaker stays open. Defaults to 5s.
	BreakerTimeout time.Duration
}

type NewTask struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Status      models.TaskStatus   `json:"status,omitempty"`
	Priority    models.TaskPriority `json:"priority,omitempty"`
}

type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
	creds   credentials.Holder
	breaker *gobreaker.CircuitBreaker
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Credentials == nil {
		cfg.Credentials = credentials.NewMemory("")
	}
	if cfg.MaxConsecutiveFailures == 0 {
		cfg.MaxConsecutiveFailures = 3
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 5 * time.Second
	}

	maxFailures := cfg.MaxConsecutiveFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "task-api-cb",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > maxFailures
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	return &Client{
		baseURL: strings.TrimRight(base.String(), "/"),
		http:    cfg.HTTPClient,
		creds:   cfg.Credentials,
		breaker: breaker,
	}, nil
}

// countsAsSuccess keeps client mistakes and caller cancellation from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*models.AuthResponse, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.authenticate(ctx, "register", "/auth/register", body)
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, "login", "/auth/login", body)
}

func (c *Client) authenticate(ctx context.Context, op, path string, body any) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, op, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	if err := c.creds.Set(resp.Token); err != nil {
		return nil, fmt.Errorf("%s: failed to store token: %w", op, err)
	}
	return &resp, nil
}

// Logout forgets the held token. The server keeps no session to end.
func (c *Client) Logout() error {
	return c.creds.Clear()
}

func (c *Client) Profile(ctx context.Context) (*models.PublicUser, error) {
	var user models.PublicUser
	if err := c.do(ctx, "profile", http.MethodGet, "/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.PublicUser, error) {
	var user models.PublicUser
	if err := c.do(ctx, "update profile", http.MethodPut, "/profile", update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := url.Values{}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.Priority != "" {
		query.Set("priority", string(filter.Priority))
	}
	path := "/tasks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	tasks := []models.Task{}
	if err := c.do(ctx, "list tasks", http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, task NewTask) (*models.Task, error) {
	var created models.Task
	if err := c.do(ctx, "create task", http.MethodPost, "/tasks", task, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	var updated models.Task
	if err := c.do(ctx, "update task", http.MethodPut, "/tasks/"+url.PathEscape(id), patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, "delete task", http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

// do sends one request through the breaker and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.send(ctx, op, method, path, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &TransportError{Op: op, Err: err}
	}
	if err != nil {
		return err
	}

	raw, _ := result.([]byte)
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	logging.Logger.WithFields(logrus.Fields{"method": method, "path": path, "status": resp.StatusCode}).
		Debug("Event ID: API_RESPONSE, Description: Response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPError(resp.StatusCode, raw)
	}
	return raw, nil
}

func newHTTPError(status int, raw []byte) *HTTPError {
	var body struct {
		Message string       `json:"message"`
		Errors  []FieldError `json:"errors"`
	}
	httpErr := &HTTPError{StatusCode: status}
	if err := json.Unmarshal(raw, &body); err == nil {
		httpErr.Message = body.Message
		httpErr.Fields = body.Errors
	} else {
		httpErr.Message = strings.TrimSpace(string(raw))
	}
	return httpErr
}
