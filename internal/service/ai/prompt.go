package ai

import (
	"fmt"
	"strings"

	"github.com/riseai/rise-chat/internal/model/identity"
	"github.com/riseai/rise-chat/internal/model/user"
)

const basePrompt = `You are Rise AI, a helpful assistant for an employee task management system.
You help employees submit tasks, check task status, and assist managers with task overview.
When a user wants to create a task, ask for a title, a description and a priority (low/medium/high/urgent, default medium).
Always be professional, helpful, and concise. If you need more information, ask specific questions.
Format emphasis with **bold** and lists with lines starting "- ".`

// BuildSystemPrompt adds the caller's profile and role capabilities to the base prompt.
func BuildSystemPrompt(u user.User) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\nCurrent User Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n- Role: %s\n- Username: %s\n", u.FullName, u.Role, u.Username)

	if u.Role == identity.RoleManager {
		b.WriteString("\nThe user is a manager: they may view all team tasks, assign tasks, update statuses and see team statistics.")
	} else {
		b.WriteString("\nThe user is an employee: they may create tasks, check their own task status and see personal statistics.")
	}
	return b.String()
}
