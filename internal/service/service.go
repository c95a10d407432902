// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for the remote to-do API.
// Commands and controllers never talk HTTP directly.
// Implementations never panic on bad input or bad responses; every failure
// is reported through the returned error.
type Service interface {
	// Login exchanges credentials for an access token.
	Login(ctx context.Context, email, password string) (string, error)

	// Register creates an account. It does not log in.
	Register(ctx context.Context, email, password, name string) (User, error)

	// Logout notifies the server. Servers without a logout route may fail;
	// callers treat the result as advisory.
	Logout(ctx context.Context) error

	// GetTasks returns all tasks of a user in server order.
	GetTasks(ctx context.Context, userID string) ([]Task, error)

	// GetTask returns a single task.
	GetTask(ctx context.Context, id int) (Task, error)

	// CreateTask validates the input, then creates the task.
	CreateTask(ctx context.Context, in TaskInput) (Task, error)

	// UpdateTask validates the input, then replaces title and description.
	UpdateTask(ctx context.Context, id int, in TaskInput) (Task, error)

	// ToggleTaskCompletion sets the completed flag.
	ToggleTaskCompletion(ctx context.Context, id int, completed bool) (Task, error)

	// DeleteTask deletes a task. A nil error means the server confirmed.
	DeleteTask(ctx context.Context, id int) error

	// SendMessage sends one chat turn.
	SendMessage(ctx context.Context, message, sessionID string) (ChatReply, error)

	// ChatHistory returns the most recent messages of a chat session.
	ChatHistory(ctx context.Context, sessionID string, limit int) ([]HistoryEntry, error)
}
