// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"taskdash/internal/service"
)

// DefaultUserID is the id of the user the fake serves.
const DefaultUserID = "user-1"

// ErrNotFound mirrors the server's 404 answer.
var ErrNotFound = &service.Error{Kind: service.KindHTTP, Status: 404, Message: "Task not found"}

// ErrUnauthorized mirrors the server's 401 answer.
var ErrUnauthorized = &service.Error{Kind: service.KindHTTP, Status: 401, Message: "Invalid email or password"}

// FakeService is an in-memory implementation of service.Service for testing.
// It serves a single user.
type FakeService struct {
	mu       sync.Mutex
	userID   string
	tasks    []service.Task
	nextID   int
	accounts map[string]string // email -> password
	replies  []service.ChatReply
	calls    []string

	// Error injection for testing
	LoginErr       error
	RegisterErr    error
	LogoutErr      error
	GetTasksErr    error
	CreateTaskErr  error
	UpdateTaskErr  error
	ToggleErr      error
	DeleteTaskErr  map[int]error // task id -> error
	SendMessageErr error
	HistoryErr     error

	// History is returned by ChatHistory.
	History []service.HistoryEntry

	// Now stamps created and updated tasks.
	Now func() time.Time
}

// NewFakeService creates an empty FakeService for DefaultUserID.
func NewFakeService() *FakeService {
	return &FakeService{
		userID:        DefaultUserID,
		nextID:        1,
		accounts:      make(map[string]string),
		DeleteTaskErr: make(map[int]error),
		Now: func() time.Time {
			return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		},
	}
}

// AddAccount registers credentials accepted by Login.
func (f *FakeService) AddAccount(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = password
}

// AddTask seeds a task and returns it.
func (f *FakeService) AddTask(title string, completed bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{
		ID:        f.nextID,
		UserID:    f.userID,
		Title:     title,
		Completed: completed,
		CreatedAt: f.Now(),
		UpdatedAt: f.Now(),
	}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return t
}

// QueueReply queues a chat reply. Replies are returned in order; when the
// queue is empty SendMessage echoes the message.
func (f *FakeService) QueueReply(r service.ChatReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, r)
}

// ServerTasks returns the server-side tasks.
func (f *FakeService) ServerTasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.Task(nil), f.tasks...)
}

// Calls returns the names of the methods called so far, in order.
func (f *FakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeService) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// Token builds an HS256 access token carrying sub and email, shaped like
// the ones the server issues.
func Token(userID, email string) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return s
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Login(%s)", email)
	if f.LoginErr != nil {
		return "", f.LoginErr
	}
	if pw, ok := f.accounts[email]; !ok || pw != password {
		return "", ErrUnauthorized
	}
	return Token(f.userID, email), nil
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, email, password, name string) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Register(%s)", email)
	if f.RegisterErr != nil {
		return service.User{}, f.RegisterErr
	}
	if _, ok := f.accounts[email]; ok {
		return service.User{}, &service.Error{Kind: service.KindHTTP, Status: 400, Message: "Email already registered"}
	}
	f.accounts[email] = password
	return service.User{ID: f.userID, Email: email, Name: name}, nil
}

// Logout implements service.Service.
func (f *FakeService) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Logout")
	return f.LogoutErr
}

// GetTasks implements service.Service.
func (f *FakeService) GetTasks(ctx context.Context, userID string) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetTasks(%s)", userID)
	if f.GetTasksErr != nil {
		return nil, f.GetTasksErr
	}
	if userID != f.userID {
		return []service.Task{}, nil
	}
	return append([]service.Task{}, f.tasks...), nil
}

// GetTask implements service.Service.
func (f *FakeService) GetTask(ctx context.Context, id int) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetTask(%d)", id)
	if i := f.indexOf(id); i >= 0 {
		return f.tasks[i], nil
	}
	return service.Task{}, ErrNotFound
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	if err := service.ValidateTaskInput(in); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateTask(%s)", in.Title)
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	t := service.Task{
		ID:          f.nextID,
		UserID:      f.userID,
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   f.Now(),
		UpdatedAt:   f.Now(),
	}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id int, in service.TaskInput) (service.Task, error) {
	if err := service.ValidateTaskInput(in); err != nil {
		return service.Task{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateTask(%d)", id)
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	i := f.indexOf(id)
	if i < 0 {
		return service.Task{}, ErrNotFound
	}
	f.tasks[i].Title = in.Title
	if in.Description != nil {
		f.tasks[i].Description = in.Description
	}
	f.tasks[i].UpdatedAt = f.Now()
	return f.tasks[i], nil
}

// ToggleTaskCompletion implements service.Service.
func (f *FakeService) ToggleTaskCompletion(ctx context.Context, id int, completed bool) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ToggleTaskCompletion(%d,%t)", id, completed)
	if f.ToggleErr != nil {
		return service.Task{}, f.ToggleErr
	}
	i := f.indexOf(id)
	if i < 0 {
		return service.Task{}, ErrNotFound
	}
	f.tasks[i].Completed = completed
	f.tasks[i].UpdatedAt = f.Now()
	return f.tasks[i], nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteTask(%d)", id)
	if err, ok := f.DeleteTaskErr[id]; ok && err != nil {
		return err
	}
	i := f.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

// SendMessage implements service.Service.
func (f *FakeService) SendMessage(ctx context.Context, message, sessionID string) (service.ChatReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SendMessage(%s)", message)
	if f.SendMessageErr != nil {
		return service.ChatReply{}, f.SendMessageErr
	}
	if len(f.replies) == 0 {
		return service.ChatReply{
			Response:  "echo: " + message,
			SessionID: sessionID,
			Timestamp: f.Now().Format(time.RFC3339),
		}, nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	if r.SessionID == "" {
		r.SessionID = sessionID
	}
	return r, nil
}

// ChatHistory implements service.Service.
func (f *FakeService) ChatHistory(ctx context.Context, sessionID string, limit int) ([]service.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ChatHistory(%s,%d)", sessionID, limit)
	if f.HistoryErr != nil {
		return nil, f.HistoryErr
	}
	h := f.History
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return append([]service.HistoryEntry(nil), h...), nil
}

// indexOf must be called with mu held.
func (f *FakeService) indexOf(id int) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
