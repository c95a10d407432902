// Package session persists the authenticated identity and bearer token.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"taskdash/internal/logging"
	"taskdash/internal/service"
)

// Storage is the persistence medium for a session.
type Storage interface {
	// Load returns the stored bytes, or an error wrapping fs.ErrNotExist.
	Load() ([]byte, error)
	Save(data []byte) error
	Remove() error
}

// FileStorage stores the session as a single file with mode 0600.
type FileStorage struct {
	Path string
}

func (f FileStorage) Load() ([]byte, error) {
	return os.ReadFile(f.Path)
}

func (f FileStorage) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0600)
}

func (f FileStorage) Remove() error {
	err := os.Remove(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStorage keeps the session in memory. Useful for tests.
type MemoryStorage struct {
	mu   sync.Mutex
	data []byte
}

func (m *MemoryStorage) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, fs.ErrNotExist
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryStorage) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStorage) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

// persisted is the on-disk shape.
type persisted struct {
	Token string        `json:"token"`
	User  *service.User `json:"user"`
}

// Store holds the current session. Token and user are always set and
// cleared together.
type Store struct {
	mu      sync.RWMutex
	token   string
	user    *service.User
	storage Storage
	logger  *zap.Logger
}

// Open reads the persisted session from storage.
// A missing, corrupt or partial session yields an anonymous store.
func Open(storage Storage, logger *zap.Logger) *Store {
	s := &Store{storage: storage, logger: logging.OrNop(logger)}

	data, err := storage.Load()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read session", zap.Error(err))
		}
		return s
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("ignoring corrupt session", zap.Error(err))
		return s
	}
	if p.Token == "" || p.User == nil {
		s.logger.Warn("ignoring partial session")
		return s
	}

	s.token = p.Token
	s.user = p.User
	return s
}

// SetSession stores token and user and persists them.
// The in-memory session is only replaced once the write succeeded.
func (s *Store) SetSession(token string, user service.User) error {
	if token == "" {
		return fmt.Errorf("empty token")
	}

	data, err := json.MarshalIndent(persisted{Token: token, User: &user}, "", "  ")
	if err != nil {
		return err
	}
	if err := s.storage.Save(data); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = &user
	return nil
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the bearer token, or "" when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the stored identity.
func (s *Store) User() (service.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return service.User{}, false
	}
	return *s.user, true
}

// UserID returns the stored user id.
func (s *Store) UserID() (string, bool) {
	u, ok := s.User()
	if !ok {
		return "", false
	}
	return u.ID, true
}

// Logout clears the session. It never fails; storage errors are logged.
func (s *Store) Logout() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.storage.Remove(); err != nil {
		s.logger.Warn("failed to remove session", zap.Error(err))
	}
}

// NameFromEmail returns the local part of an email address.
func NameFromEmail(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}
