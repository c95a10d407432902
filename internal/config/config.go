// Package config handles the XDG configuration directory, file paths and
// environment settings.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "taskdash"

	// SessionFile is the stored session filename.
	SessionFile = "session.json"

	// EnvFile is the optional dotenv filename read from the working
	// directory and the config directory.
	EnvFile = ".env"

	// DefaultAPIURL is used when no API URL is configured.
	DefaultAPIURL = "http://localhost:8000"

	// DefaultChatSession is the chat session id used when none is configured.
	DefaultChatSession = "default-session"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIURL is the base URL of the to-do API.
	APIURL string

	// ChatSession is the chat session id sent with every chat turn.
	ChatSession string

	// Timeout bounds each API request. Zero means no timeout.
	Timeout time.Duration

	// LogLevel and LogEncoding configure the logger.
	LogLevel    string
	LogEncoding string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskdash or $HOME/.config/taskdash.
// Environment variables are read after loading .env files; variables already
// set in the process environment win.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	// Missing files are fine.
	_ = godotenv.Load(EnvFile)
	_ = godotenv.Load(filepath.Join(dir, EnvFile))

	apiURL := getString("TASKDASH_API_URL", getString("NEXT_PUBLIC_API_URL", DefaultAPIURL))

	return &Config{
		Dir:         dir,
		APIURL:      strings.TrimRight(apiURL, "/"),
		ChatSession: getString("TASKDASH_CHAT_SESSION", DefaultChatSession),
		Timeout:     getDuration("TASKDASH_TIMEOUT", 0),
		LogLevel:    getString("TASKDASH_LOG_LEVEL", "warn"),
		LogEncoding: getString("TASKDASH_LOG_ENCODING", "console"),
	}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// EffectiveLogLevel returns "debug" when Debug is set, else LogLevel.
func (c *Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
