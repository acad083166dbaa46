// Package dashboard holds the state behind the task list screen: the list
// with its filters, the create/edit form and the delete confirmation.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PurvDabhi/Task-Management-App/backend/models"
	"github.com/PurvDabhi/Task-Management-App/client/api"
	"github.com/PurvDabhi/Task-Management-App/logging"

	"github.com/sirupsen/logrus"
)

var ErrNoForm = errors.New("no form is open")

// API is the subset of the client proxy the dashboard talks to.
type API interface {
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	CreateTask(ctx context.Context, task api.NewTask) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Confirmer is the yes/no gate in front of every delete.
type Confirmer interface {
	Confirm(ctx context.Context, task models.Task) bool
}

type ConfirmFunc func(ctx context.Context, task models.Task) bool

func (f ConfirmFunc) Confirm(ctx context.Context, task models.Task) bool { return f(ctx, task) }

type ListState int

const (
	Loading ListState = iota
	Idle
	Error
)

func (s ListState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Idle:
		return "idle"
	case Error:
		return "error"
	}
	return fmt.Sprintf("ListState(%d)", int(s))
}

type FormMode int

const (
	FormClosed FormMode = iota
	FormCreate
	FormEdit
)

func (m FormMode) String() string {
	switch m {
	case FormClosed:
		return "closed"
	case FormCreate:
		return "create"
	case FormEdit:
		return "edit"
	}
	return fmt.Sprintf("FormMode(%d)", int(m))
}

// Draft holds the editable fields of the open form.
type Draft struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
}

func emptyDraft() Draft {
	return Draft{Status: models.StatusPending, Priority: models.PriorityMedium}
}

// Failure records a remote call that did not succeed.
type Failure struct {
	Op  string
	Err error
}

func (f *Failure) Error() string { return f.Op + ": " + f.Err.Error() }

func (f *Failure) Unwrap() error { return f.Err }

// Snapshot is a copy of the visible state.
type Snapshot struct {
	State       ListState
	Tasks       []models.Task
	Filters     models.TaskFilter
	Form        FormMode
	EditingID   string
	Draft       Draft
	LastFailure *Failure
}

// Controller is safe for concurrent use. Each list request takes a sequence
// number and only the response to the latest request is shown.
type Controller struct {
	api     API
	confirm Confirmer

	mu          sync.Mutex
	seq         uint64
	state       ListState
	tasks       []models.Task
	filters     models.TaskFilter
	form        FormMode
	formGen     uint64
	editingID   string
	draft       Draft
	lastFailure *Failure
}

func NewController(client API, confirm Confirmer) *Controller {
	return &Controller{api: client, confirm: confirm, state: Loading, tasks: []models.Task{}}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	tasks := make([]models.Task, len(c.tasks))
	copy(tasks, c.tasks)
	return Snapshot{
		State:       c.state,
		Tasks:       tasks,
		Filters:     c.filters,
		Form:        c.form,
		EditingID:   c.editingID,
		Draft:       c.draft,
		LastFailure: c.lastFailure,
	}
}

// DismissFailure clears LastFailure.
func (c *Controller) DismissFailure() {
	c.mu.Lock()
	c.lastFailure = nil
	c.mu.Unlock()
}

func (c *Controller) Mount(ctx context.Context) error {
	return c.refresh(ctx)
}

func (c *Controller) SetFilters(ctx context.Context, filters models.TaskFilter) error {
	c.mu.Lock()
	c.filters = filters
	c.mu.Unlock()
	return c.refresh(ctx)
}

func (c *Controller) SetSearch(ctx context.Context, search string) error {
	c.mu.Lock()
	c.filters.Search = search
	c.mu.Unlock()
	return c.refresh(ctx)
}

func (c *Controller) SetStatus(ctx context.Context, status models.TaskStatus) error {
	c.mu.Lock()
	c.filters.Status = status
	c.mu.Unlock()
	return c.refresh(ctx)
}

func (c *Controller) SetPriority(ctx context.Context, priority models.TaskPriority) error {
	c.mu.Lock()
	c.filters.Priority = priority
	c.mu.Unlock()
	return c.refresh(ctx)
}

func (c *Controller) refresh(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	filters := c.filters
	c.state = Loading
	c.mu.Unlock()

	tasks, err := c.api.ListTasks(ctx, filters)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		logging.Logger.WithFields(logrus.Fields{"seq": seq, "latest": c.seq}).
			Debug("Event ID: DASHBOARD_STALE_LIST, Description: Dropped response to a superseded list request")
		return nil
	}
	if err != nil {
		c.state = Error
		return c.failLocked("list tasks", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.tasks = tasks
	c.state = Idle
	return nil
}

func (c *Controller) failLocked(op string, err error) *Failure {
	f := &Failure{Op: op, Err: err}
	c.lastFailure = f
	logging.Logger.WithField("op", op).
		Errorf("Event ID: DASHBOARD_CALL_FAILED, Description: %v", err)
	return f
}

func (c *Controller) fail(op string, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failLocked(op, err)
}

func (c *Controller) OpenCreate() {
	c.mu.Lock()
	c.formGen++
	c.form = FormCreate
	c.editingID = ""
	c.draft = emptyDraft()
	c.mu.Unlock()
}

func (c *Controller) OpenEdit(task models.Task) {
	c.mu.Lock()
	c.formGen++
	c.form = FormEdit
	c.editingID = task.ID
	c.draft = Draft{
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
	}
	c.mu.Unlock()
}

// EditDraft applies fn to the open form's draft. It reports false when no form is open.
func (c *Controller) EditDraft(fn func(*Draft)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.form == FormClosed {
		return false
	}
	fn(&c.draft)
	return true
}

func (c *Controller) CancelForm() {
	c.mu.Lock()
	c.closeFormLocked()
	c.mu.Unlock()
}

func (c *Controller) closeFormLocked() {
	c.formGen++
	c.form = FormClosed
	c.editingID = ""
	c.draft = Draft{}
}

// Submit sends the open form. On failure the form stays open with its draft.
// A form opened or cancelled while the call is in flight is left alone.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	mode, id, draft, gen := c.form, c.editingID, c.draft, c.formGen
	c.mu.Unlock()

	var err error
	switch mode {
	case FormCreate:
		_, err = c.api.CreateTask(ctx, api.NewTask{
			Title:       draft.Title,
			Description: draft.Description,
			Status:      draft.Status,
			Priority:    draft.Priority,
		})
		if err != nil {
			return c.fail("create task", err)
		}
	case FormEdit:
		_, err = c.api.UpdateTask(ctx, id, models.TaskPatch{
			Title:       &draft.Title,
			Description: &draft.Description,
			Status:      &draft.Status,
			Priority:    &draft.Priority,
		})
		if err != nil {
			return c.fail("update task", err)
		}
	default:
		return ErrNoForm
	}

	c.mu.Lock()
	if c.formGen == gen {
		c.closeFormLocked()
	}
	c.mu.Unlock()
	return c.refresh(ctx)
}

// Delete asks the Confirmer first and reports whether the task was deleted.
func (c *Controller) Delete(ctx context.Context, id string) (bool, error) {
	target := models.Task{ID: id}
	c.mu.Lock()
	for _, task := range c.tasks {
		if task.ID == id {
			target = task
			break
		}
	}
	c.mu.Unlock()

	if c.confirm == nil || !c.confirm.Confirm(ctx, target) {
		return false, nil
	}
	if err := c.api.DeleteTask(ctx, id); err != nil {
		return false, c.fail("delete task", err)
	}
	return true, c.refresh(ctx)
}
