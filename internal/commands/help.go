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
	Register(&HelpCmd{registry: DefaultRegistry})
}

// HelpCmd prints usage for every registered command.
type HelpCmd struct {
	registry *Registry
}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskdash help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, deps *Deps, args []string, out, errOut io.Writer) int {
	reg := c.registry
	if reg == nil {
		reg = DefaultRegistry
	}

	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  taskdash                 same as taskdash list")
	for _, cmd := range reg.All() {
		fmt.Fprintf(out, "  %s\n", cmd.Usage())
		line := cmd.Synopsis()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			line += " (alias: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(out, "      %s\n", line)
	}
	fmt.Fprint(out, helpFooter)
	return exitcode.Success
}

const helpFooter = `
Without --password, the password is read from the first line of stdin.
In interactive chat: /tasks lists tasks, /reset clears the conversation,
/quit exits.

Common flags (accepted by every command):
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment (also read from .env and <config dir>/.env):
  TASKDASH_API_URL        API base URL (default http://localhost:8000)
  TASKDASH_CHAT_SESSION   Chat session id (default default-session)
  TASKDASH_TIMEOUT        Per-request timeout, e.g. 30s (default none)
  TASKDASH_LOG_LEVEL      debug, info, warn, error (default warn)
  TASKDASH_LOG_ENCODING   console or json (default console)
`
