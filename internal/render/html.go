// Package render turns transcript turns into display markup.
package render

import (
	"html"
	"regexp"
	"strings"

	"github.com/riseai/rise-chat/internal/model/chat"
)

var (
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	bulletPattern = regexp.MustCompile(`(?m)^- (.+)$`)
)

// HTML returns the turn body as HTML. All text is escaped; assistant turns additionally get
// bold, bullet and line-break formatting.
func HTML(turn chat.Turn) string {
	escaped := html.EscapeString(turn.Content)
	if turn.Role != chat.RoleAssistant {
		return escaped
	}

	formatted := boldPattern.ReplaceAllString(escaped, "<strong>$1</strong>")
	formatted = bulletPattern.ReplaceAllString(formatted, "• $1")
	return strings.ReplaceAll(formatted, "\n", "<br>")
}
