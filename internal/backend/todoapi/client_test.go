package todoapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"taskdash/internal/backend/todoapi"
	"taskdash/internal/config"
	"taskdash/internal/service"
)

type fakeCreds struct {
	token  string
	userID string
}

func (f fakeCreds) Token() string { return f.token }

func (f fakeCreds) UserID() (string, bool) { return f.userID, f.userID != "" }

var user123 = fakeCreds{token: "tok-123", userID: "user123"}

func newClient(t *testing.T, creds todoapi.Credentials, h http.HandlerFunc) *todoapi.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return todoapi.NewWithHTTPClient(srv.URL, srv.Client(), creds)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const taskJSON = `{"id":1,"user_id":"user123","title":"Buy milk","description":null,"completed":false,` +
	`"created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}`

func TestGetTasks_RequestShape(t *testing.T) {
	c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/api/user123/tasks" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected Content-Type %q", ct)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok-123" {
			t.Errorf("unexpected Authorization %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, "["+taskJSON+"]")
	})

	tasks, err := c.GetTasks(context.Background(), "user123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != 1 || tasks[0].Title != "Buy milk" || tasks[0].Description != nil {
		t.Errorf("unexpected tasks %+v", tasks)
	}
	if !tasks[0].CreatedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected created_at %v", tasks[0].CreatedAt)
	}
}

func TestGetTasks_NoTokenNoAuthorization(t *testing.T) {
	c := newClient(t, fakeCreds{userID: "user123"}, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("expected no Authorization header, got %q", auth)
		}
		io.WriteString(w, "[]")
	})

	tasks, err := c.GetTasks(context.Background(), "user123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", tasks)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := todoapi.NewWithHTTPClient(url, nil, user123)
	_, err := c.GetTasks(context.Background(), "user123")
	if err == nil {
		t.Fatal("expected error")
	}
	if !service.IsKind(err, service.KindTransport) {
		t.Errorf("expected transport error, got %v", err)
	}
	if !strings.Contains(err.Error(), "connect") {
		t.Errorf("expected underlying cause in %q", err.Error())
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail string", 404, `{"detail":"Task not found"}`, "Task not found"},
		{"detail list", 422, `{"detail":[{"msg":"field required"},{"msg":"too long"}]}`, "field required; too long"},
		{"message", 400, `{"message":"bad input"}`, "bad input"},
		{"error string", 400, `{"error":"nope"}`, "nope"},
		{"google style", 403, `{"error":{"code":403,"message":"forbidden"}}`, "forbidden"},
		{"empty body", 500, ``, "request failed with status 500"},
		{"html body", 502, `<html>bad gateway</html>`, "request failed with status 502"},
		{"long detail cut at rune", 400, `{"detail":"` + strings.Repeat("é", 250) + `"}`, strings.Repeat("é", 200) + "..."},
		{"long google message cut", 403, `{"error":{"code":403,"message":"` + strings.Repeat("x", 250) + `"}}`, strings.Repeat("x", 200) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.GetTask(context.Background(), 1)
			if err == nil {
				t.Fatal("expected error")
			}
			var sErr *service.Error
			if !errors.As(err, &sErr) {
				t.Fatalf("expected *service.Error, got %T", err)
			}
			if sErr.Kind != service.KindHTTP || sErr.Status != tt.status {
				t.Errorf("unexpected kind/status %s/%d", sErr.Kind, sErr.Status)
			}
			if sErr.Message != tt.want {
				t.Errorf("expected message %q, got %q", tt.want, sErr.Message)
			}
		})
	}
}

func TestCreateTask_ValidationSkipsRequest(t *testing.T) {
	var hits int32
	c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	})

	_, err := c.CreateTask(context.Background(), service.TaskInput{Title: strings.Repeat("x", 201)})
	if !service.IsKind(err, service.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = c.UpdateTask(context.Background(), 1, service.TaskInput{Title: ""})
	if !service.IsKind(err, service.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("expected no requests, got %d", hits)
	}
}

func TestCreateTask(t *testing.T) {
	c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/user123/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Error(err)
			return
		}
		if body["title"] != "Buy milk" || body["description"] != "2l" {
			t.Errorf("unexpected body %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, taskJSON)
	})

	desc := "2l"
	task, err := c.CreateTask(context.Background(), service.TaskInput{Title: "Buy milk", Description: &desc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != 1 {
		t.Errorf("unexpected task %+v", task)
	}
}

func TestCreateTask_NotLoggedIn(t *testing.T) {
	c := newClient(t, fakeCreds{}, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.CreateTask(context.Background(), service.TaskInput{Title: "x"})
	if !errors.Is(err, service.ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn, got %v", err)
	}
	if !service.IsKind(err, service.KindValidation) {
		t.Errorf("expected a validation error, got %#v", err)
	}
}

func TestGetTasks_EmptyUserID(t *testing.T) {
	c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.GetTasks(context.Background(), "")
	var sErr *service.Error
	if !errors.As(err, &sErr) || sErr.Kind != service.KindValidation {
		t.Fatalf("expected a validation *service.Error, got %#v", err)
	}
	if !errors.Is(err, service.ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestGetTasks_NaiveTimestamps(t *testing.T) {
	c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":1,"user_id":"user123","title":"Buy milk","description":null,"completed":false,`+
			`"created_at":"2024-01-01T10:00:00.123456","updated_at":"2024-01-01T10:00:00"}]`)
	})

	tasks, err := c.GetTasks(context.Background(), "user123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if want := time.Date(2024, 1, 1, 10, 0, 0, 123456000, time.UTC); !tasks[0].CreatedAt.Equal(want) {
		t.Errorf("expected created_at %v, got %v", want, tasks[0].CreatedAt)
	}
	if want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC); !tasks[0].UpdatedAt.Equal(want) {
		t.Errorf("expected updated_at %v, got %v", want, tasks[0].UpdatedAt)
	}
}

func TestToggleTaskCompletion_NaiveTimestamps(t *testing.T) {
	c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":5,"user_id":"user123","title":"x","completed":true,`+
			`"created_at":"2024-01-01T10:00:00.5","updated_at":"2024-01-02T11:00:00.000001"}`)
	})

	task, err := c.ToggleTaskCompletion(context.Background(), 5, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !task.Completed || task.UpdatedAt.Nanosecond() != 1000 {
		t.Errorf("unexpected task %+v", task)
	}
}

func TestToggleTaskCompletion(t *testing.T) {
	c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/user123/tasks/5/complete" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if strings.TrimSpace(string(body)) != `{"completed":true}` {
			t.Errorf("unexpected body %s", body)
		}
		io.WriteString(w, strings.Replace(taskJSON, `"completed":false`, `"completed":true`, 1))
	})

	task, err := c.ToggleTaskCompletion(context.Background(), 5, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !task.Completed {
		t.Error("expected completed task")
	}
}

func TestUpdateTask(t *testing.T) {
	c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/user123/tasks/1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, taskJSON)
	})

	if _, err := c.UpdateTask(context.Background(), 1, service.TaskInput{Title: "Buy milk"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/user123/tasks/9" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{"message":"Task deleted successfully"}`)
	})

	if err := c.DeleteTask(context.Background(), 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteTask_NoContent(t *testing.T) {
	c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.DeleteTask(context.Background(), 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodeError(t *testing.T) {
	c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id": "not-a-number"`)
	})

	_, err := c.GetTask(context.Background(), 1)
	if !service.IsKind(err, service.KindDecode) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	c := newClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "ada@example.com" || body["password"] != "secret" {
			t.Errorf("unexpected body %v", body)
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "abc", "token_type": "bearer"})
	})

	token, err := c.Login(context.Background(), "ada@example.com", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "abc" {
		t.Errorf("unexpected token %q", token)
	}
}

func TestLogin_MissingToken(t *testing.T) {
	c := newClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token_type": "bearer"})
	})

	if _, err := c.Login(context.Background(), "a@b.c", "x"); !service.IsKind(err, service.KindDecode) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestLogin_Unauthorized(t *testing.T) {
	c := newClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid email or password"})
	})

	_, err := c.Login(context.Background(), "a@b.c", "x")
	if !service.IsUnauthorized(err) {
		t.Fatalf("expected 401, got %v", err)
	}
	if err.Error() != "Invalid email or password" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestRegister(t *testing.T) {
	c := newClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": "u9", "email": "ada@example.com", "name": "Ada"})
	})

	u, err := c.Register(context.Background(), "ada@example.com", "secret", "Ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "u9" || u.Name != "Ada" {
		t.Errorf("unexpected user %+v", u)
	}
}

func TestSendMessage(t *testing.T) {
	c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat/converse" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["message"] != "hi" || body["session_id"] != "s1" || body["user_id"] != "user123" {
			t.Errorf("unexpected body %v", body)
		}
		io.WriteString(w, `{"response":"hello","session_id":"s1","timestamp":"2024-01-01T10:00:00Z",`+
			`"tool_calls":[{"name":"delete_task","parameters":{"task_id":"3"}}],"refresh_tasks":true}`)
	})

	reply, err := c.SendMessage(context.Background(), "hi", "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Response != "hello" || !reply.RefreshTasks {
		t.Errorf("unexpected reply %+v", reply)
	}
	if len(reply.ToolCalls) != 1 || reply.ToolCalls[0].Action != (service.DeleteTaskAction{TaskID: 3}) {
		t.Errorf("unexpected tool calls %+v", reply.ToolCalls)
	}
}

func TestSendMessage_MalformedToolCallKeepsReply(t *testing.T) {
	c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"response":"done","tool_calls":["create_task",{"name":"delete_task","parameters":{"task_id":1}}],`+
			`"tool_results":["ok"]}`)
	})

	reply, err := c.SendMessage(context.Background(), "hi", "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Response != "done" {
		t.Errorf("reply text lost: %q", reply.Response)
	}
	if len(reply.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(reply.ToolCalls))
	}
	if reply.ToolCalls[0].DecodeErr == nil {
		t.Error("expected the string entry to carry a decode error")
	}
	if reply.ToolCalls[1].Action != (service.DeleteTaskAction{TaskID: 1}) {
		t.Errorf("valid entry not decoded: %+v", reply.ToolCalls[1])
	}
}

func TestSendMessage_AnonymousUser(t *testing.T) {
	c := newClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["user_id"] != "default-user" {
			t.Errorf("unexpected user_id %q", body["user_id"])
		}
		io.WriteString(w, `{"response":"hello","session_id":"s1"}`)
	})

	reply, err := c.SendMessage(context.Background(), "hi", "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Timestamp == "" {
		t.Error("expected a timestamp to be filled in")
	}
}

func TestChatHistory(t *testing.T) {
	c := newClient(t, user123, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/history/s1" || r.URL.Query().Get("limit") != "10" {
			t.Errorf("unexpected request %s", r.URL)
		}
		io.WriteString(w, `{"session_id":"s1","messages":[{"role":"user","content":"hi"}]}`)
	})

	entries, err := c.ChatHistory(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Content != "hi" {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})

	cfg := &config.Config{APIURL: srv.URL, Timeout: 50 * time.Millisecond}
	c := todoapi.New(cfg, user123, nil)

	_, err := c.GetTasks(context.Background(), "user123")
	if !service.IsKind(err, service.KindTransport) {
		t.Errorf("expected transport error, got %v", err)
	}
}
