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
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete tasks" }
func (c *RmCmd) Usage() string     { return "taskdash rm <id...>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, deps *Deps, args []string, out, errOut io.Writer) int {
	ids, err := ParseTaskIDs(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	userID, ok := deps.Session.UserID()
	if !ok {
		return reportError(errOut, service.ErrNotLoggedIn)
	}
	ctrl := tasklist.New(deps.Service, userID, deps.Logger)

	code := exitcode.Success
	for _, id := range ids {
		if err := ctrl.Delete(ctx, id); err != nil {
			code = reportError(errOut, err)
			continue
		}
		if !cfg.Quiet {
			fmt.Fprintf(out, "deleted %d\n", id)
		}
	}
	return code
}
