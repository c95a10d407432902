package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"taskdash/internal/service"
)

const chatWrapWidth = 80

// ChatPrinter writes chat messages. On a terminal, assistant replies are
// rendered as markdown and role labels are colored; otherwise output is
// plain "role: content" lines.
type ChatPrinter struct {
	w     io.Writer
	plain bool

	labels map[service.Role]lipgloss.Style

	mdOnce sync.Once
	md     *glamour.TermRenderer
}

// NewChatPrinter creates a printer for w. plain forces undecorated output.
func NewChatPrinter(w io.Writer, plain bool) *ChatPrinter {
	r := lipgloss.NewRenderer(w)
	if r.ColorProfile() == termenv.Ascii {
		plain = true
	}
	return &ChatPrinter{
		w:     w,
		plain: plain,
		labels: map[service.Role]lipgloss.Style{
			service.RoleUser:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
			service.RoleAssistant: r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
			service.RoleSystem:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		},
	}
}

// Plain reports whether output is undecorated.
func (p *ChatPrinter) Plain() bool { return p.plain }

// Message prints one transcript entry.
func (p *ChatPrinter) Message(msg service.ChatMessage) {
	label := string(msg.Role)
	if p.plain {
		fmt.Fprintf(p.w, "%s: %s\n", label, msg.Content)
		return
	}

	fmt.Fprintln(p.w, p.labels[msg.Role].Render(label))
	if msg.Role == service.RoleAssistant {
		fmt.Fprintln(p.w, p.markdown(msg.Content))
		return
	}
	fmt.Fprintln(p.w, msg.Content)
}

// History prints stored history entries.
func (p *ChatPrinter) History(entries []service.HistoryEntry) {
	for _, e := range entries {
		p.Message(service.ChatMessage{Role: service.Role(e.Role), Content: e.Content})
	}
}

func (p *ChatPrinter) markdown(md string) string {
	p.mdOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(styles.DarkStyle),
			glamour.WithWordWrap(chatWrapWidth),
		)
		if err == nil {
			p.md = r
		}
	})
	if p.md == nil {
		return md
	}
	out, err := p.md.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
