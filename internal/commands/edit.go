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
	Register(&EditCmd{})
}

// EditCmd implements the edit command.
// Unset fields keep their current value.
type EditCmd struct {
	title       optString
	description optString
}

// SetTitle sets the new title (for testing).
func (c *EditCmd) SetTitle(t string) { _ = c.title.Set(t) }

// SetDescription sets the new description (for testing).
func (c *EditCmd) SetDescription(d string) { _ = c.description.Set(d) }

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Change a task's title or description" }
func (c *EditCmd) Usage() string {
	return "taskdash edit [--title <text>] [--description <text>] <id>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title = optString{}
	c.description = optString{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, deps *Deps, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: task id required")
		return exitcode.UserError
	}
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}
	id, err := ParseTaskID(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !c.title.set && !c.description.set {
		fmt.Fprintln(errOut, "error: nothing to change (use --title or --description)")
		return exitcode.UserError
	}

	ctrl, err := loadTasks(ctx, deps)
	if err != nil {
		return reportError(errOut, err)
	}
	cur, ok := ctrl.Find(id)
	if !ok {
		return reportError(errOut, fmt.Errorf("%w: %d", tasklist.ErrUnknownTask, id))
	}

	in := service.TaskInput{Title: cur.Title, Description: cur.Description}
	if c.title.set {
		in.Title = c.title.value
	}
	if c.description.set {
		in.Description = c.description.Ptr()
	}

	task, err := ctrl.Update(ctx, id, in)
	if err != nil {
		return reportError(errOut, err)
	}
	printTask(cfg, out, task)
	return exitcode.Success
}
