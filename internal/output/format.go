// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"taskdash/internal/service"
)

const (
	// Separator is the rule printed around the list footer and task details.
	Separator = "------------"

	doneMark = "[x]"
	openMark = "[ ]"
)

// FormatTask formats a task line.
// Format: "{ID:>4}  [x] {TITLE}\n" (4-wide right-aligned id, two spaces,
// completion mark, title)
func FormatTask(w io.Writer, task service.Task) {
	mark := openMark
	if task.Completed {
		mark = doneMark
	}
	fmt.Fprintf(w, "%4d  %s %s\n", task.ID, mark, normalizeTitle(task.Title))
}

// FormatTaskList prints every task followed by a count footer.
func FormatTaskList(w io.Writer, tasks []service.Task) {
	completed := 0
	for _, t := range tasks {
		FormatTask(w, t)
		if t.Completed {
			completed++
		}
	}
	fmt.Fprintln(w, Separator)
	fmt.Fprintf(w, "%d %s, %d completed\n", len(tasks), plural(len(tasks), "task", "tasks"), completed)
}

// FormatTaskDetail prints every field of a task.
func FormatTaskDetail(w io.Writer, task service.Task) {
	status := "open"
	if task.Completed {
		status = "completed"
	}
	fmt.Fprintf(w, "id:          %d\n", task.ID)
	fmt.Fprintf(w, "title:       %s\n", normalizeTitle(task.Title))
	fmt.Fprintf(w, "status:      %s\n", status)
	if d := strings.TrimSpace(task.DescriptionText()); d != "" {
		fmt.Fprintf(w, "description: %s\n", d)
	}
	fmt.Fprintf(w, "created:     %s\n", formatTime(task.CreatedAt))
	fmt.Fprintf(w, "updated:     %s\n", formatTime(task.UpdatedAt))
}

// FormatUser prints the session identity.
func FormatUser(w io.Writer, u service.User) {
	name := u.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "%s <%s> (%s)\n", name, u.Email, u.ID)
}

// FormatFieldErrors prints one error line per rejected field, sorted.
func FormatFieldErrors(w io.Writer, fields map[string]string) {
	for _, k := range []string{"title", "description"} {
		if msg, ok := fields[k]; ok {
			fmt.Fprintf(w, "error: %s: %s\n", k, msg)
		}
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
