package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"taskdash/internal/chat"
	"taskdash/internal/exitcode"
	"taskdash/internal/output"
	"taskdash/internal/service"
	"taskdash/internal/tasklist"
)

// reportError prints err and returns the matching exit code.
func reportError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, service.ErrNotLoggedIn):
		fmt.Fprintln(errOut, "error: not logged in (run: taskdash login)")
		return exitcode.AuthError
	case errors.Is(err, tasklist.ErrUnknownTask):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrBusy):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case service.IsKind(err, service.KindValidation):
		if fields := service.FieldErrors(err); len(fields) > 0 {
			output.FormatFieldErrors(errOut, fields)
		} else {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
		return exitcode.UserError
	case service.IsUnauthorized(err):
		fmt.Fprintf(errOut, "error: auth error: %v (run: taskdash login)\n", err)
		return exitcode.AuthError
	case service.IsKind(err, service.KindHTTP) && service.StatusOf(err) < 500:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// loadTasks builds a task list controller for the session user and
// hydrates it.
func loadTasks(ctx context.Context, deps *Deps) (*tasklist.Controller, error) {
	userID, ok := deps.Session.UserID()
	if !ok {
		return nil, service.ErrNotLoggedIn
	}
	ctrl := tasklist.New(deps.Service, userID, deps.Logger)
	if err := ctrl.Fetch(ctx); err != nil {
		return nil, err
	}
	return ctrl, nil
}

// readPassword returns flagValue, or the first line of in.
func readPassword(flagValue string, in io.Reader) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if in == nil {
		return "", errors.New("password required")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password required")
	}
	return pw, nil
}

// optString is a string flag that remembers whether it was given.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(v string) error {
	o.value = v
	o.set = true
	return nil
}

// Ptr returns nil for an unset flag.
func (o *optString) Ptr() *string {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}
