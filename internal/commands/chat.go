package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"taskdash/internal/chat"
	"taskdash/internal/config"
	"taskdash/internal/exitcode"
	"taskdash/internal/output"
	"taskdash/internal/service"
	"taskdash/internal/tasklist"
)

const chatGreeting = "Hello! I'm your AI assistant. How can I help you manage your tasks today?"

const chatHint = "Ask me to create, update, or manage your tasks using natural language.\n" +
	"Commands: /tasks lists tasks, /reset clears the conversation, /quit exits."

func init() {
	Register(&ChatCmd{})
}

// ChatCmd talks to the assistant, either one message from args or an
// interactive session reading stdin line by line.
type ChatCmd struct {
	history int
	session string
	plain   bool
}

// SetHistory sets the number of history entries to print (for testing).
func (c *ChatCmd) SetHistory(n int) { c.history = n }

func (c *ChatCmd) Name() string      { return "chat" }
func (c *ChatCmd) Aliases() []string { return []string{"ask"} }
func (c *ChatCmd) Synopsis() string  { return "Talk to the task assistant" }
func (c *ChatCmd) Usage() string {
	return "taskdash chat [--session <id>] [--plain] [--history <n>] [message...]"
}
func (c *ChatCmd) NeedsAuth() bool { return true }

func (c *ChatCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.history, "history", 0, "")
	fs.StringVar(&c.session, "session", "", "")
	fs.BoolVar(&c.plain, "plain", false, "")
}

func (c *ChatCmd) Run(ctx context.Context, cfg *config.Config, deps *Deps, args []string, out, errOut io.Writer) int {
	sessionID := c.session
	if sessionID == "" {
		sessionID = cfg.ChatSession
	}
	printer := output.NewChatPrinter(out, c.plain)

	if c.history < 0 {
		fmt.Fprintf(errOut, "error: invalid history size: %d\n", c.history)
		return exitcode.UserError
	}
	if c.history > 0 {
		entries, err := deps.Service.ChatHistory(ctx, sessionID, c.history)
		if err != nil {
			return reportError(errOut, err)
		}
		printer.History(entries)
		return exitcode.Success
	}

	userID, ok := deps.Session.UserID()
	if !ok {
		return reportError(errOut, service.ErrNotLoggedIn)
	}
	tasks := tasklist.New(deps.Service, userID, deps.Logger)
	if err := tasks.Fetch(ctx); err != nil {
		deps.Logger.Warn("could not load tasks before chat", zap.Error(err))
	}
	ctrl := chat.New(deps.Service, sessionID, tasks, deps.Logger)

	if len(args) > 0 {
		return c.sendOne(ctx, ctrl, strings.Join(args, " "), printer, errOut)
	}
	return c.interactive(ctx, cfg, deps, ctrl, tasks, printer, out, errOut)
}

func (c *ChatCmd) sendOne(ctx context.Context, ctrl *chat.Controller, text string, printer *output.ChatPrinter, errOut io.Writer) int {
	reply, err := ctrl.Send(ctx, text)
	if err != nil {
		printLastSystem(ctrl, printer)
		return reportError(errOut, err)
	}
	printer.Message(reply)
	return exitcode.Success
}

func (c *ChatCmd) interactive(ctx context.Context, cfg *config.Config, deps *Deps, ctrl *chat.Controller,
	tasks *tasklist.Controller, printer *output.ChatPrinter, out, errOut io.Writer) int {
	if deps.In == nil {
		fmt.Fprintln(errOut, "error: message required")
		return exitcode.UserError
	}

	if !cfg.Quiet {
		printer.Message(service.ChatMessage{Role: service.RoleAssistant, Content: chatGreeting})
		fmt.Fprintln(out, chatHint)
	}

	scanner := bufio.NewScanner(deps.In)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return exitcode.Success
		case "/reset":
			ctrl.Reset()
			if !cfg.Quiet {
				fmt.Fprintln(out, "conversation cleared")
			}
			continue
		case "/tasks":
			output.FormatTaskList(out, tasks.Tasks())
			continue
		}

		reply, err := ctrl.Send(ctx, line)
		if err != nil {
			printLastSystem(ctrl, printer)
			deps.Logger.Debug("chat turn failed", zap.Error(err))
			continue
		}
		printer.Message(reply)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}

// printLastSystem prints the failure notice the controller appended.
func printLastSystem(ctrl *chat.Controller, printer *output.ChatPrinter) {
	msgs := ctrl.Messages()
	if n := len(msgs); n > 0 && msgs[n-1].Role == service.RoleSystem {
		printer.Message(msgs[n-1])
	}
}
