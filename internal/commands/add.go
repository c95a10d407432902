package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskdash/internal/config"
	"taskdash/internal/exitcode"
	"taskdash/internal/service"
	"taskdash/internal/tasklist"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description optString
}

// SetDescription sets the description (for testing).
func (c *AddCmd) SetDescription(d string) {
	_ = c.description.Set(d)
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string     { return "taskdash add [--description <text>] <title...>" }
func (c *AddCmd) NeedsAuth() bool   { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	c.description = optString{}
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, deps *Deps, args []string, out, errOut io.Writer) int {
	// Join args to form title
	title := strings.Join(args, " ")
	in := service.TaskInput{Title: title, Description: c.description.Ptr()}

	// Validate before any request so bad input never reaches the server
	if err := service.ValidateTaskInput(in); err != nil {
		return reportError(errOut, err)
	}

	userID, ok := deps.Session.UserID()
	if !ok {
		return reportError(errOut, service.ErrNotLoggedIn)
	}

	ctrl := tasklist.New(deps.Service, userID, deps.Logger)
	task, err := ctrl.Create(ctx, in)
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %d\n", task.ID)
	}
	return exitcode.Success
}
