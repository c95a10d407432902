package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"runtime"

	"taskdash/internal/config"
	"taskdash/internal/exitcode"
)

// Version is the application version. Set at build time with
// -ldflags "-X taskdash/internal/commands.Version=...".
var Version = "0.1.0"

func init() {
	Register(&VersionCmd{})
}

// VersionCmd prints the version, and with --verbose the API endpoint and
// paths the CLI would use.
type VersionCmd struct {
	verbose bool
}

func (c *VersionCmd) Name() string      { return "version" }
func (c *VersionCmd) Aliases() []string { return nil }
func (c *VersionCmd) Synopsis() string  { return "Print version" }
func (c *VersionCmd) Usage() string     { return "taskdash version [--verbose]" }
func (c *VersionCmd) NeedsAuth() bool   { return false }

func (c *VersionCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "verbose", false, "")
}

func (c *VersionCmd) Run(ctx context.Context, cfg *config.Config, deps *Deps, args []string, out, errOut io.Writer) int {
	fmt.Fprintf(out, "taskdash %s\n", Version)
	if !c.verbose {
		return exitcode.Success
	}

	fmt.Fprintf(out, "go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(out, "api:     %s\n", cfg.APIURL)
	fmt.Fprintf(out, "config:  %s\n", cfg.Dir)
	fmt.Fprintf(out, "session: %s\n", cfg.SessionPath())
	return exitcode.Success
}
