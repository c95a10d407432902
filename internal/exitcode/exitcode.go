// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates bad args, invalid task input, or a task the
	// server does not know.
	UserError = 1

	// AuthError indicates a missing session or credentials the server
	// rejected.
	AuthError = 2

	// BackendError indicates a network failure or a server error.
	BackendError = 3
)
