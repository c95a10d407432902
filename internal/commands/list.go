package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdash/internal/config"
	"taskdash/internal/exitcode"
	"taskdash/internal/output"
	"taskdash/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskdash` (no args) and `taskdash list`.
type ListCmd struct {
	open bool
	done bool
}

// SetFilter sets the open/done filters (for testing).
func (c *ListCmd) SetFilter(open, done bool) {
	c.open = open
	c.done = done
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "taskdash list [--open | --done]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.open, "open", false, "")
	fs.BoolVar(&c.done, "done", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, deps *Deps, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.open && c.done {
		fmt.Fprintln(errOut, "error: cannot use both --open and --done")
		return exitcode.UserError
	}

	ctrl, err := loadTasks(ctx, deps)
	if err != nil {
		return reportError(errOut, err)
	}

	tasks := ctrl.Tasks()
	if c.open || c.done {
		filtered := tasks[:0]
		for _, t := range tasks {
			if t.Completed == c.done {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	if len(tasks) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks")
		}
		return exitcode.Success
	}

	if cfg.Quiet {
		for _, t := range tasks {
			output.FormatTask(out, t)
		}
		return exitcode.Success
	}
	output.FormatTaskList(out, tasks)
	return exitcode.Success
}

// printTask prints a task unless quiet.
func printTask(cfg *config.Config, out io.Writer, t service.Task) {
	if !cfg.Quiet {
		output.FormatTask(out, t)
	}
}
