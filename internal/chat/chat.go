// Package chat keeps the assistant transcript and runs the task mutations
// the assistant asks for.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskdash/internal/logging"
	"taskdash/internal/service"
)

var (
	// ErrEmptyMessage rejects blank input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrBusy rejects a send while another one is awaiting its response.
	ErrBusy = errors.New("a message is already awaiting a response")
)

const (
	// FailureNotice is appended as a system message when a turn fails.
	FailureNotice = "Sorry, I encountered an error. Please try again."

	// EmptyReplyNotice replaces an empty assistant response.
	EmptyReplyNotice = "Sorry, I encountered an error."
)

// TaskMutator runs tool calls. *tasklist.Controller satisfies it.
type TaskMutator interface {
	Create(ctx context.Context, in service.TaskInput) (service.Task, error)
	Update(ctx context.Context, id int, in service.TaskInput) (service.Task, error)
	SetCompleted(ctx context.Context, id int, completed bool) (service.Task, error)
	Delete(ctx context.Context, id int) error
	Fetch(ctx context.Context) error
}

// taskFinder lets update_task calls without a title keep the current one.
type taskFinder interface {
	Find(id int) (service.Task, bool)
}

// Controller is either idle or awaiting a response; at most one turn is in
// flight. Tool-call mutations are not serialized against other task list
// calls.
type Controller struct {
	svc       service.Service
	sessionID string
	tasks     TaskMutator
	logger    *zap.Logger

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	messages []service.ChatMessage
	awaiting bool
	lastErr  error
	gen      uint64 // bumped by Reset
}

// New creates a controller for one chat session. tasks may be nil, in which
// case tool calls are logged and skipped.
func New(svc service.Service, sessionID string, tasks TaskMutator, logger *zap.Logger) *Controller {
	return &Controller{
		svc:       svc,
		sessionID: sessionID,
		tasks:     tasks,
		logger:    logging.OrNop(logger),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// SessionID returns the chat session id sent with each turn.
func (c *Controller) SessionID() string { return c.sessionID }

// Messages returns a copy of the transcript in insertion order.
func (c *Controller) Messages() []service.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]service.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Awaiting reports whether a turn is in flight.
func (c *Controller) Awaiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaiting
}

// LastError returns the failure of the most recent turn, if any.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Reset clears the transcript and the last error. A turn still in flight
// settles into the discarded transcript, not the new one.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.lastErr = nil
	c.gen++
}

// Send submits one user turn and returns the assistant's message.
// On failure a system message is appended and the user's message stays.
func (c *Controller) Send(ctx context.Context, input string) (service.ChatMessage, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return service.ChatMessage{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.awaiting {
		c.mu.Unlock()
		return service.ChatMessage{}, ErrBusy
	}
	c.awaiting = true
	c.lastErr = nil
	gen := c.gen
	c.appendLocked(service.RoleUser, text, c.now())
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.awaiting = false
		c.mu.Unlock()
	}()

	reply, err := c.svc.SendMessage(ctx, text, c.sessionID)
	if err != nil {
		c.logger.Warn("chat turn failed", zap.String("session_id", c.sessionID), zap.Error(err))
		c.mu.Lock()
		if c.gen == gen {
			c.lastErr = err
			c.appendLocked(service.RoleSystem, FailureNotice, c.now())
		}
		c.mu.Unlock()
		return service.ChatMessage{}, err
	}

	c.runToolCalls(ctx, reply.ToolCalls)

	if reply.RefreshTasks && c.tasks != nil {
		if err := c.tasks.Fetch(ctx); err != nil {
			c.logger.Warn("failed to refresh tasks after chat turn", zap.Error(err))
		}
	}

	content := reply.Response
	if content == "" {
		content = EmptyReplyNotice
	}
	ts, err := service.ParseTimestamp(reply.Timestamp)
	if err != nil || ts.IsZero() {
		ts = c.now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		c.logger.Debug("dropping reply settled after reset", zap.String("session_id", c.sessionID))
		return service.ChatMessage{ID: c.newID(), Role: service.RoleAssistant, Content: content, Timestamp: ts}, nil
	}
	return c.appendLocked(service.RoleAssistant, content, ts), nil
}

// runToolCalls runs each call in order. A failing or unknown call is logged
// and does not stop the others.
func (c *Controller) runToolCalls(ctx context.Context, calls []service.ToolCall) {
	for _, call := range calls {
		if call.Action == nil {
			c.logger.Warn("skipping tool call", zap.String("tool", call.Name), zap.Error(call.DecodeErr))
			continue
		}
		if c.tasks == nil {
			c.logger.Warn("no task list to run tool call", zap.String("tool", call.Name))
			continue
		}
		if err := c.runToolCall(ctx, call.Action); err != nil {
			c.logger.Warn("tool call failed", zap.String("tool", call.Name), zap.Error(err))
			continue
		}
		c.logger.Debug("tool call done", zap.String("tool", call.Name))
	}
}

func (c *Controller) runToolCall(ctx context.Context, action service.ToolAction) error {
	switch a := action.(type) {
	case service.CreateTaskAction:
		_, err := c.tasks.Create(ctx, a.Input)
		return err
	case service.UpdateTaskAction:
		in := a.Input
		if in.Title == "" {
			if f, ok := c.tasks.(taskFinder); ok {
				if cur, found := f.Find(a.TaskID); found {
					in.Title = cur.Title
				}
			}
		}
		_, err := c.tasks.Update(ctx, a.TaskID, in)
		return err
	case service.DeleteTaskAction:
		return c.tasks.Delete(ctx, a.TaskID)
	case service.CompleteTaskAction:
		_, err := c.tasks.SetCompleted(ctx, a.TaskID, true)
		return err
	default:
		return errors.New("unsupported tool action")
	}
}

// appendLocked must be called with mu held.
func (c *Controller) appendLocked(role service.Role, content string, ts time.Time) service.ChatMessage {
	msg := service.ChatMessage{
		ID:        c.newID(),
		Role:      role,
		Content:   content,
		Timestamp: ts,
	}
	c.messages = append(c.messages, msg)
	return msg
}
