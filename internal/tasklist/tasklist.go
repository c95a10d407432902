// Package tasklist holds the in-memory task list of the current session and
// applies server-confirmed mutations to it.
//
// Every mutation is pessimistic: the local list changes only after the
// server answered successfully, and it takes the server's record verbatim.
// Overlapping calls are not sequenced; the last response to arrive wins.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"taskdash/internal/logging"
	"taskdash/internal/service"
)

// ErrUnknownTask is returned by Toggle for an id not in the local list.
var ErrUnknownTask = errors.New("task not in list")

// Controller mediates between the displayed list and the API.
type Controller struct {
	svc    service.Service
	userID string
	logger *zap.Logger

	mu    sync.RWMutex
	tasks []service.Task
}

// New creates a controller for userID's tasks. The list starts empty; call
// Fetch to hydrate it.
func New(svc service.Service, userID string, logger *zap.Logger) *Controller {
	return &Controller{
		svc:    svc,
		userID: userID,
		logger: logging.OrNop(logger),
	}
}

// Tasks returns a copy of the list in display order.
func (c *Controller) Tasks() []service.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]service.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Find returns the task with the given id.
func (c *Controller) Find(id int) (service.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.tasks[i], true
	}
	return service.Task{}, false
}

// Counts returns the number of tasks and how many are completed.
func (c *Controller) Counts() (total, completed int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tasks {
		if t.Completed {
			completed++
		}
	}
	return len(c.tasks), completed
}

// Fetch replaces the list with the server's. On error the list is untouched.
func (c *Controller) Fetch(ctx context.Context) error {
	tasks, err := c.svc.GetTasks(ctx, c.userID)
	if err != nil {
		c.logger.Debug("failed to fetch tasks", zap.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append([]service.Task(nil), tasks...)
	return nil
}

// Create appends the server-created task.
func (c *Controller) Create(ctx context.Context, in service.TaskInput) (service.Task, error) {
	task, err := c.svc.CreateTask(ctx, in)
	if err != nil {
		c.logger.Debug("failed to create task", zap.Error(err))
		return service.Task{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, task)
	return task, nil
}

// Update changes title and description, then replaces the local entry.
func (c *Controller) Update(ctx context.Context, id int, in service.TaskInput) (service.Task, error) {
	task, err := c.svc.UpdateTask(ctx, id, in)
	if err != nil {
		c.logger.Debug("failed to update task", zap.Int("task_id", id), zap.Error(err))
		return service.Task{}, err
	}
	c.replace(id, task)
	return task, nil
}

// SetCompleted sets the completed flag, then replaces the local entry.
func (c *Controller) SetCompleted(ctx context.Context, id int, completed bool) (service.Task, error) {
	task, err := c.svc.ToggleTaskCompletion(ctx, id, completed)
	if err != nil {
		c.logger.Debug("failed to toggle task completion",
			zap.Int("task_id", id), zap.Bool("completed", completed), zap.Error(err))
		return service.Task{}, err
	}
	c.replace(id, task)
	return task, nil
}

// Toggle flips the completed flag of a task in the local list.
func (c *Controller) Toggle(ctx context.Context, id int) (service.Task, error) {
	cur, ok := c.Find(id)
	if !ok {
		return service.Task{}, fmt.Errorf("%w: %d", ErrUnknownTask, id)
	}
	return c.SetCompleted(ctx, id, !cur.Completed)
}

// Delete removes the task once the server confirmed. On error it stays.
// Deleting an id that is not in the list is a no-op locally.
func (c *Controller) Delete(ctx context.Context, id int) error {
	if err := c.svc.DeleteTask(ctx, id); err != nil {
		c.logger.Debug("failed to delete task", zap.Int("task_id", id), zap.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
	}
	return nil
}

// replace swaps in the server record. A record for an id not in the list
// (e.g. removed concurrently) is dropped.
func (c *Controller) replace(id int, task service.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		c.tasks[i] = task
	}
}

// indexOf must be called with mu held.
func (c *Controller) indexOf(id int) int {
	for i, t := range c.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
