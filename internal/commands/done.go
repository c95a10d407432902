package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdash/internal/config"
	"taskdash/internal/exitcode"
	"taskdash/internal/service"
	"taskdash/internal/tasklist"
)

func init() {
	Register(&DoneCmd{})
	Register(&ReopenCmd{})
	Register(&ToggleCmd{})
}

// DoneCmd marks tasks completed.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string  { return "Mark tasks completed" }
func (c *DoneCmd) Usage() string     { return "taskdash done <id...>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, deps *Deps, args []string, out, errOut io.Writer) int {
	return runCompletion(ctx, cfg, deps, args, out, errOut, func(ctrl *tasklist.Controller, id int) (service.Task, error) {
		return ctrl.SetCompleted(ctx, id, true)
	})
}

// ReopenCmd marks tasks open again.
type ReopenCmd struct{}

func (c *ReopenCmd) Name() string      { return "reopen" }
func (c *ReopenCmd) Aliases() []string { return []string{"undone"} }
func (c *ReopenCmd) Synopsis() string  { return "Mark tasks open" }
func (c *ReopenCmd) Usage() string     { return "taskdash reopen <id...>" }
func (c *ReopenCmd) NeedsAuth() bool   { return true }

func (c *ReopenCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ReopenCmd) Run(ctx context.Context, cfg *config.Config, deps *Deps, args []string, out, errOut io.Writer) int {
	return runCompletion(ctx, cfg, deps, args, out, errOut, func(ctrl *tasklist.Controller, id int) (service.Task, error) {
		return ctrl.SetCompleted(ctx, id, false)
	})
}

// ToggleCmd flips the completed flag of tasks.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string      { return "toggle" }
func (c *ToggleCmd) Aliases() []string { return nil }
func (c *ToggleCmd) Synopsis() string  { return "Flip tasks between open and completed" }
func (c *ToggleCmd) Usage() string     { return "taskdash toggle <id...>" }
func (c *ToggleCmd) NeedsAuth() bool   { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, deps *Deps, args []string, out, errOut io.Writer) int {
	return runCompletion(ctx, cfg, deps, args, out, errOut, func(ctrl *tasklist.Controller, id int) (service.Task, error) {
		return ctrl.Toggle(ctx, id)
	})
}

// runCompletion applies fn to every id. It keeps going after a failure and
// returns the exit code of the last failure.
func runCompletion(ctx context.Context, cfg *config.Config, deps *Deps, args []string, out, errOut io.Writer,
	fn func(ctrl *tasklist.Controller, id int) (service.Task, error)) int {
	ids, err := ParseTaskIDs(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	ctrl, err := loadTasks(ctx, deps)
	if err != nil {
		return reportError(errOut, err)
	}

	code := exitcode.Success
	for _, id := range ids {
		task, err := fn(ctrl, id)
		if err != nil {
			code = reportError(errOut, err)
			continue
		}
		printTask(cfg, out, task)
	}
	return code
}
