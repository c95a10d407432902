package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Tool names the chat backend may ask the client to run.
const (
	ToolCreateTask   = "create_task"
	ToolUpdateTask   = "update_task"
	ToolDeleteTask   = "delete_task"
	ToolCompleteTask = "complete_task"
)

// ToolAction is one of CreateTaskAction, UpdateTaskAction, DeleteTaskAction
// or CompleteTaskAction.
type ToolAction interface {
	toolName() string
}

// CreateTaskAction asks for a new task.
type CreateTaskAction struct {
	Input TaskInput
}

// UpdateTaskAction asks for a title/description change.
type UpdateTaskAction struct {
	TaskID int
	Input  TaskInput
}

// DeleteTaskAction asks for a task to be removed.
type DeleteTaskAction struct {
	TaskID int
}

// CompleteTaskAction asks for a task to be marked completed.
type CompleteTaskAction struct {
	TaskID int
}

func (CreateTaskAction) toolName() string   { return ToolCreateTask }
func (UpdateTaskAction) toolName() string   { return ToolUpdateTask }
func (DeleteTaskAction) toolName() string   { return ToolDeleteTask }
func (CompleteTaskAction) toolName() string { return ToolCompleteTask }

// ToolCall is a decoded tool call from a chat reply.
// Action is nil when the name is unknown or the parameters could not be
// decoded; DecodeErr says which. A bad tool call never fails the reply.
type ToolCall struct {
	Name       string
	Parameters json.RawMessage
	Action     ToolAction
	DecodeErr  error
}

type rawToolCall struct {
	Name       string          `json:"name"`
	Parameters json.RawMessage `json:"parameters"`
}

type rawToolParams struct {
	TaskID      json.RawMessage `json:"task_id"`
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
}

// MarshalJSON writes the wire shape {name, parameters}.
func (tc ToolCall) MarshalJSON() ([]byte, error) {
	params := tc.Parameters
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	return json.Marshal(rawToolCall{Name: tc.Name, Parameters: params})
}

// UnmarshalJSON decodes a tool call. It never fails: an entry that is not
// an object, an unknown name or bad parameters end up in DecodeErr.
func (tc *ToolCall) UnmarshalJSON(data []byte) error {
	var raw rawToolCall
	if err := json.Unmarshal(data, &raw); err != nil {
		*tc = ToolCall{Parameters: append(json.RawMessage(nil), data...), DecodeErr: fmt.Errorf("malformed tool call: %w", err)}
		return nil
	}
	*tc = ToolCall{Name: raw.Name, Parameters: raw.Parameters}
	tc.Action, tc.DecodeErr = decodeAction(raw.Name, raw.Parameters)
	return nil
}

func decodeAction(name string, params json.RawMessage) (ToolAction, error) {
	var p rawToolParams
	if len(params) > 0 && string(params) != "null" {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("%s: bad parameters: %w", name, err)
		}
	}

	switch name {
	case ToolCreateTask:
		if p.Title == nil {
			return nil, fmt.Errorf("%s: missing title", name)
		}
		return CreateTaskAction{Input: TaskInput{Title: *p.Title, Description: p.Description}}, nil
	case ToolUpdateTask:
		id, err := parseTaskID(p.TaskID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		in := TaskInput{Description: p.Description}
		if p.Title != nil {
			in.Title = *p.Title
		}
		return UpdateTaskAction{TaskID: id, Input: in}, nil
	case ToolDeleteTask:
		id, err := parseTaskID(p.TaskID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return DeleteTaskAction{TaskID: id}, nil
	case ToolCompleteTask:
		id, err := parseTaskID(p.TaskID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return CompleteTaskAction{TaskID: id}, nil
	default:
		return nil, fmt.Errorf("unknown tool: %q", name)
	}
}

// parseTaskID accepts 7, "7" and 7.0.
func parseTaskID(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("missing task_id")
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return numberToID(string(n))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return numberToID(strings.TrimSpace(s))
	}
	return 0, fmt.Errorf("invalid task_id: %s", raw)
}

func numberToID(s string) (int, error) {
	if id, err := strconv.Atoi(s); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid task_id: %s", s)
	}
	return int(f), nil
}
