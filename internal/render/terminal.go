package render

import (
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/riseai/rise-chat/internal/model/chat"
)

const (
	userColor      = "#10B981"
	assistantColor = "#7C3AED"
	errorColor     = "#EF4444"
	dimColor       = "#6B7280"
)

// Terminal renders turns for a terminal transcript.
type Terminal struct {
	loc *time.Location

	user      lipgloss.Style
	assistant lipgloss.Style
	failure   lipgloss.Style
	dim       lipgloss.Style
	bold      lipgloss.Style
}

// NewTerminal builds a renderer whose color support follows out. Times display in loc, or
// the local zone when loc is nil.
func NewTerminal(out io.Writer, loc *time.Location) *Terminal {
	if loc == nil {
		loc = time.Local
	}
	r := lipgloss.NewRenderer(out)
	return &Terminal{
		loc:       loc,
		user:      r.NewStyle().Foreground(lipgloss.Color(userColor)).Bold(true),
		assistant: r.NewStyle().Foreground(lipgloss.Color(assistantColor)).Bold(true),
		failure:   r.NewStyle().Foreground(lipgloss.Color(errorColor)),
		dim:       r.NewStyle().Foreground(lipgloss.Color(dimColor)),
		bold:      r.NewStyle().Bold(true),
	}
}

// Turn renders one turn as a label line followed by its body.
func (t *Terminal) Turn(turn chat.Turn) string {
	label := "You"
	style := t.user
	if turn.Role == chat.RoleAssistant {
		label = "Rise AI"
		style = t.assistant
	}

	header := style.Render(label)
	if ts, ok := turn.Time(); ok {
		header += " " + t.dim.Render(ts.In(t.loc).Format("15:04"))
	}

	body := Sanitize(turn.Content)
	switch {
	case turn.IsError:
		body = t.failure.Render(body)
	case turn.Role == chat.RoleAssistant:
		body = t.formatAssistant(body)
	}
	return header + "\n" + body
}

// Transcript renders turns separated by blank lines.
func (t *Terminal) Transcript(turns []chat.Turn) string {
	if len(turns) == 0 {
		return t.dim.Render("No messages yet. Say hello!")
	}
	parts := make([]string, len(turns))
	for i, turn := range turns {
		parts[i] = t.Turn(turn)
	}
	return strings.Join(parts, "\n\n")
}

// Notice renders a dimmed status line.
func (t *Terminal) Notice(text string) string {
	return t.dim.Render(text)
}

// Error renders an error line.
func (t *Terminal) Error(text string) string {
	return t.failure.Render(text)
}

func (t *Terminal) formatAssistant(body string) string {
	body = boldPattern.ReplaceAllStringFunc(body, func(m string) string {
		return t.bold.Render(strings.TrimSuffix(strings.TrimPrefix(m, "**"), "**"))
	})
	return bulletPattern.ReplaceAllString(body, "• $1")
}

// Sanitize removes escape sequences and control characters other than newline and tab so
// message text cannot drive the terminal.
func Sanitize(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, ansi.Strip(text))
}
