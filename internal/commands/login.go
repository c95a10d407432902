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
	"taskdash/internal/session"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	password string
}

// SetPassword sets the password (for testing).
func (c *LoginCmd) SetPassword(pw string) {
	c.password = pw
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return []string{"signin"} }
func (c *LoginCmd) Synopsis() string  { return "Sign in and store the session" }
func (c *LoginCmd) Usage() string     { return "taskdash login [--password <pw>] <email>" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.password, "p", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, deps *Deps, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: email required")
		return exitcode.UserError
	}
	email := strings.TrimSpace(args[0])

	if u, ok := deps.Session.User(); ok && strings.EqualFold(u.Email, email) {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	password, err := readPassword(c.password, deps.In)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	return signIn(ctx, cfg, deps, email, password, out, errOut)
}

// signIn logs in and stores the session. Shared by login and register.
func signIn(ctx context.Context, cfg *config.Config, deps *Deps, email, password string, out, errOut io.Writer) int {
	token, err := deps.Service.Login(ctx, email, password)
	if err != nil {
		if service.IsKind(err, service.KindHTTP) && service.StatusOf(err) < 500 {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.AuthError
		}
		return reportError(errOut, err)
	}

	user, err := session.UserFromToken(token, email)
	if err != nil {
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if err := deps.Session.SetSession(token, user); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
