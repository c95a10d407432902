package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskdash/internal/config"
	"taskdash/internal/exitcode"
)

func init() {
	Register(&RegisterCmd{})
}

// RegisterCmd implements the register command.
// A successful registration is followed by a login, as the sign-up page did.
type RegisterCmd struct {
	password string
	name     string
}

// SetPassword sets the password (for testing).
func (c *RegisterCmd) SetPassword(pw string) {
	c.password = pw
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account and sign in" }
func (c *RegisterCmd) Usage() string {
	return "taskdash register [--name <name>] [--password <pw>] <email>"
}
func (c *RegisterCmd) NeedsAuth() bool { return false }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.password, "p", "", "")
	fs.StringVar(&c.name, "name", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, deps *Deps, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: email required")
		return exitcode.UserError
	}
	email := strings.TrimSpace(args[0])

	password, err := readPassword(c.password, deps.In)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if _, err := deps.Service.Register(ctx, email, password, strings.TrimSpace(c.name)); err != nil {
		return reportError(errOut, err)
	}

	return signIn(ctx, cfg, deps, email, password, out, errOut)
}
