// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"encoding/json"
	"fmt"
	"time"
)

// Task represents a single task item as returned by the server.
// ID, UserID and the timestamps are server-assigned.
type Task struct {
	ID          int       `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UnmarshalJSON decodes a task, accepting timestamps with or without a zone
// offset.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var aux struct {
		plain
		CreatedAt string `json:"created_at"`
		UpdatedAt string `json:"updated_at"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	created, err := ParseTimestamp(aux.CreatedAt)
	if err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	updated, err := ParseTimestamp(aux.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updated_at: %w", err)
	}
	*t = Task(aux.plain)
	t.CreatedAt, t.UpdatedAt = created, updated
	return nil
}

// naiveLayouts are ISO-8601 forms without a zone; they are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a server timestamp. RFC 3339 is tried first, then
// the zone-less forms, which are taken as UTC. An empty string is the zero
// time.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp: %q", s)
}

// DescriptionText returns the description or "" when absent.
func (t Task) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// TaskInput is the payload for creating or editing a task.
type TaskInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// User is the identity stored alongside the session token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one entry of a chat transcript.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatReply is the chat endpoint's answer to one turn.
type ChatReply struct {
	Response     string            `json:"response"`
	SessionID    string            `json:"session_id"`
	Timestamp    string            `json:"timestamp"`
	ToolCalls    []ToolCall        `json:"tool_calls"`
	ToolResults  []json.RawMessage `json:"tool_results"`
	RefreshTasks bool              `json:"refresh_tasks"`
}

// HistoryEntry is a stored chat message returned by the history endpoint.
type HistoryEntry struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}
