// Package form holds the add-task draft and turns it into a created task.
package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist-go/internal/task"
)

// MsgFieldsRequired is the combined validation message.
const MsgFieldsRequired = "All fields are required."

var (
	// ErrFieldsRequired is returned when any draft field is empty.
	ErrFieldsRequired = errors.New(MsgFieldsRequired)
	// ErrSubmitInFlight is returned when a submission is already running.
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	// ErrUnknownField is returned by SetField for names outside task.Fields.
	ErrUnknownField = errors.New("unknown field")
	// ErrNotSubmitting is returned by Finish without a matching Begin.
	ErrNotSubmitting = errors.New("no submission in progress")
)

// Creator issues the write call for a draft.
type Creator interface {
	AddTask(ctx context.Context, draft task.Draft) (task.Task, error)
}

// Appender receives tasks the server acknowledged.
type Appender interface {
	Append(t task.Task)
}

// State is the controller's submission state.
type State int

const (
	// StateIdle covers both a fresh form and a rejected validation.
	StateIdle State = iota
	StateSubmitting
	StateCommitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Controller owns the draft, validates it and submits it.
type Controller struct {
	creator  Creator
	appender Appender
	logger   *log.Logger

	mu            sync.Mutex
	draft         task.Draft
	state         State
	validationMsg string
	submitErr     error
}

// New creates a controller with an empty draft.
func New(creator Creator, appender Appender, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Controller{
		creator:  creator,
		appender: appender,
		logger:   logger,
	}
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() task.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetField replaces one draft field. Dates accept task.Date, time.Time or a
// YYYY-MM-DD string; an empty string clears a date. Completeness is not
// checked here.
func (c *Controller) SetField(name string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch name {
	case task.FieldTitle, task.FieldDescription:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s: expected text, got %T", name, value)
		}
		if name == task.FieldTitle {
			c.draft.Title = s
		} else {
			c.draft.Description = s
		}
		return nil
	case task.FieldStartingDate, task.FieldEndingDate:
		d, err := toDate(value)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		if name == task.FieldStartingDate {
			c.draft.StartingDate = d
		} else {
			c.draft.EndingDate = d
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, name)
}

func toDate(value any) (task.Date, error) {
	switch v := value.(type) {
	case nil:
		return task.Date{}, nil
	case task.Date:
		return v, nil
	case time.Time:
		return task.DateOf(v), nil
	case string:
		if v == "" {
			return task.Date{}, nil
		}
		return task.ParseDate(v)
	}
	return task.Date{}, fmt.Errorf("expected a date, got %T", value)
}

// Validate reports ErrFieldsRequired if any field is empty.
func (c *Controller) Validate() error {
	return validate(c.Draft())
}

func validate(d task.Draft) error {
	if len(d.Missing()) > 0 {
		return ErrFieldsRequired
	}
	return nil
}

// Begin starts a submission. It validates the draft, claims the single
// in-flight slot and returns the draft to send. On a validation failure the
// message is recorded and the state stays Idle.
func (c *Controller) Begin() (task.Draft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSubmitting {
		return task.Draft{}, ErrSubmitInFlight
	}
	if err := validate(c.draft); err != nil {
		c.validationMsg = err.Error()
		c.state = StateIdle
		return task.Draft{}, err
	}

	c.validationMsg = ""
	c.submitErr = nil
	c.state = StateSubmitting
	return c.draft, nil
}

// Finish settles a submission started by Begin. On success the created task
// is appended exactly once and the draft is reset; on failure the error is
// logged, kept for SubmitError and the draft is left as it was.
func (c *Controller) Finish(created task.Task, err error) error {
	c.mu.Lock()
	if c.state != StateSubmitting {
		c.mu.Unlock()
		return ErrNotSubmitting
	}

	if err != nil {
		c.state = StateFailed
		c.submitErr = err
		c.mu.Unlock()
		c.logger.Error("submit task failed", "err", err)
		return err
	}

	c.state = StateCommitted
	c.draft = task.Draft{}
	c.validationMsg = ""
	c.submitErr = nil
	c.mu.Unlock()

	if c.appender != nil {
		c.appender.Append(created)
	}
	c.logger.Info("task created", "id", created.ID(), "title", created.Title)
	return nil
}

// Submit validates the draft and, if complete, issues exactly one create
// call and settles it. It returns ErrFieldsRequired without any call when a
// field is missing and ErrSubmitInFlight while another submission runs.
func (c *Controller) Submit(ctx context.Context) error {
	draft, err := c.Begin()
	if err != nil {
		return err
	}
	created, err := c.Create(ctx, draft)
	return c.Finish(created, err)
}

// Create issues the write call for a draft claimed by Begin. It touches no
// controller state, so callers may run it off the UI goroutine and hand the
// result to Finish.
func (c *Controller) Create(ctx context.Context, draft task.Draft) (task.Task, error) {
	if c.creator == nil {
		return task.Task{}, fmt.Errorf("submit task: no backend configured")
	}
	created, err := c.creator.AddTask(ctx, draft)
	if err != nil {
		return task.Task{}, fmt.Errorf("submit task: %w", err)
	}
	return created, nil
}

// Reset clears the draft, the validation message and the submit error.
// It does nothing while a submission is in flight.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSubmitting {
		return
	}
	c.draft = task.Draft{}
	c.validationMsg = ""
	c.submitErr = nil
	c.state = StateIdle
}

// State returns the submission state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ValidationMessage returns the combined validation message, or "".
func (c *Controller) ValidationMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validationMsg
}

// SubmitError returns the error of the last failed submission, or nil.
func (c *Controller) SubmitError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitErr
}

// Submitting reports whether a submission is in flight.
func (c *Controller) Submitting() bool {
	return c.State() == StateSubmitting
}
