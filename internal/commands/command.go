// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"go.uber.org/zap"

	"taskdash/internal/config"
	"taskdash/internal/service"
	"taskdash/internal/session"
)

// Deps are the collaborators a command runs against.
type Deps struct {
	// Service is the remote API. Always set.
	Service service.Service

	// Session is the persisted session. Always set.
	Session *session.Store

	// Logger is never nil.
	Logger *zap.Logger

	// In is read by interactive commands and password prompts.
	In io.Reader
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a session.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths).
	// deps is nil for help and version when run directly.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, deps *Deps, args []string, out, errOut io.Writer) int
}
