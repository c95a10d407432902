// Package todoapi implements the service.Service interface over the to-do
// REST API.
package todoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"taskdash/internal/config"
	"taskdash/internal/logging"
	"taskdash/internal/service"
)

const (
	// anonymousChatUser is sent as user_id when no session exists.
	anonymousChatUser = "default-user"

	// maxErrorDetail caps server messages, in runes.
	maxErrorDetail = 200
)

// Credentials supplies the bearer token and the user the task routes are
// scoped to. *session.Store satisfies it.
type Credentials interface {
	Token() string
	UserID() (string, bool)
}

// Client implements service.Service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	creds   Credentials
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a client for the API configured in cfg.
func New(cfg *config.Config, creds Credentials, logger *zap.Logger) *Client {
	c := NewWithHTTPClient(cfg.APIURL, http.DefaultClient, creds)
	c.timeout = cfg.Timeout
	c.logger = logging.OrNop(logger)
	return c
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client, creds Credentials) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		creds:   creds,
		logger:  zap.NewNop(),
	}
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", &service.Error{Kind: service.KindDecode, Message: "login response has no access_token"}
	}
	return resp.AccessToken, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password, name string) (service.User, error) {
	body := map[string]string{"email": email, "password": password}
	if name != "" {
		body["name"] = name
	}
	var user service.User
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &user); err != nil {
		return service.User{}, err
	}
	return user, nil
}

// Logout notifies the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// GetTasks returns all tasks of a user.
func (c *Client) GetTasks(ctx context.Context, userID string) ([]service.Task, error) {
	if userID == "" {
		return nil, service.ErrNotLoggedIn
	}
	tasks := []service.Task{}
	if err := c.do(ctx, http.MethodGet, tasksPath(userID), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns a single task of the session user.
func (c *Client) GetTask(ctx context.Context, id int) (service.Task, error) {
	userID, err := c.userID()
	if err != nil {
		return service.Task{}, err
	}
	var task service.Task
	if err := c.do(ctx, http.MethodGet, taskPath(userID, id), nil, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// CreateTask validates the input, then creates the task.
func (c *Client) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	if err := service.ValidateTaskInput(in); err != nil {
		return service.Task{}, err
	}
	userID, err := c.userID()
	if err != nil {
		return service.Task{}, err
	}
	var task service.Task
	if err := c.do(ctx, http.MethodPost, tasksPath(userID), in, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// UpdateTask validates the input, then updates title and description.
func (c *Client) UpdateTask(ctx context.Context, id int, in service.TaskInput) (service.Task, error) {
	if err := service.ValidateTaskInput(in); err != nil {
		return service.Task{}, err
	}
	userID, err := c.userID()
	if err != nil {
		return service.Task{}, err
	}
	var task service.Task
	if err := c.do(ctx, http.MethodPut, taskPath(userID, id), in, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// ToggleTaskCompletion sets the completed flag.
func (c *Client) ToggleTaskCompletion(ctx context.Context, id int, completed bool) (service.Task, error) {
	userID, err := c.userID()
	if err != nil {
		return service.Task{}, err
	}
	body := struct {
		Completed bool `json:"completed"`
	}{completed}
	var task service.Task
	if err := c.do(ctx, http.MethodPatch, taskPath(userID, id)+"/complete", body, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// DeleteTask deletes a task. Any response body is ignored.
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	userID, err := c.userID()
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, taskPath(userID, id), nil, nil)
}

// SendMessage sends one chat turn.
func (c *Client) SendMessage(ctx context.Context, message, sessionID string) (service.ChatReply, error) {
	userID, ok := c.credsUserID()
	if !ok {
		userID = anonymousChatUser
	}
	body := map[string]string{
		"message":    message,
		"session_id": sessionID,
		"user_id":    userID,
	}
	var reply service.ChatReply
	if err := c.do(ctx, http.MethodPost, "/api/chat/converse", body, &reply); err != nil {
		return service.ChatReply{}, err
	}
	if reply.Timestamp == "" {
		reply.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return reply, nil
}

// ChatHistory returns the most recent messages of a chat session.
func (c *Client) ChatHistory(ctx context.Context, sessionID string, limit int) ([]service.HistoryEntry, error) {
	path := "/api/chat/history/" + url.PathEscape(sessionID)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Messages []service.HistoryEntry `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func tasksPath(userID string) string {
	return "/api/" + url.PathEscape(userID) + "/tasks"
}

func taskPath(userID string, id int) string {
	return tasksPath(userID) + "/" + strconv.Itoa(id)
}

func (c *Client) credsUserID() (string, bool) {
	if c.creds == nil {
		return "", false
	}
	id, ok := c.creds.UserID()
	return id, ok && id != ""
}

func (c *Client) userID() (string, error) {
	id, ok := c.credsUserID()
	if !ok {
		return "", service.ErrNotLoggedIn
	}
	return id, nil
}

// client returns an HTTP client that attaches the bearer token when a
// session exists.
func (c *Client) client() *http.Client {
	if c.creds == nil {
		return c.http
	}
	token := c.creds.Token()
	if token == "" {
		return c.http
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &http.Client{
		Transport:     &oauth2.Transport{Source: src, Base: c.http.Transport},
		CheckRedirect: c.http.CheckRedirect,
		Jar:           c.http.Jar,
		Timeout:       c.http.Timeout,
	}
}

// do issues a JSON request and decodes a JSON response into out.
// Every failure comes back as a *service.Error.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &service.Error{Kind: service.KindValidation, Message: "failed to encode request", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &service.Error{Kind: service.KindTransport, Message: "invalid request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("api request", zap.String("method", method), zap.String("path", path))

	resp, err := c.client().Do(req)
	if err != nil {
		c.logger.Debug("api transport failure", zap.String("path", path), zap.Error(err))
		return &service.Error{Kind: service.KindTransport, Message: "network error", Err: err}
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		msg := errorMessage(err, resp.StatusCode)
		c.logger.Debug("api error response",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", msg))
		return &service.Error{Kind: service.KindHTTP, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &service.Error{Kind: service.KindDecode, Message: "invalid response body", Err: err}
	}
	return nil
}

// errorMessage extracts a server-provided message from a non-2xx answer.
// FastAPI style {"detail": "..."} and {"detail": [{"msg": "..."}]} bodies
// are understood, as are {"message"} and {"error"} bodies.
func errorMessage(err error, status int) string {
	if msg := serverMessage(err); msg != "" {
		return truncate(msg)
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func serverMessage(err error) string {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return ""
	}
	if gErr.Message != "" {
		return gErr.Message
	}

	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   any             `json:"error"`
	}
	if json.Unmarshal([]byte(gErr.Body), &payload) != nil {
		return ""
	}

	if msg := detailMessage(payload.Detail); msg != "" {
		return msg
	}
	if payload.Message != "" {
		return payload.Message
	}
	if s, ok := payload.Error.(string); ok {
		return s
	}
	return ""
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(raw, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// truncate cuts s to maxErrorDetail runes.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxErrorDetail {
		return s
	}
	n := 0
	for i := range s {
		if n == maxErrorDetail {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
