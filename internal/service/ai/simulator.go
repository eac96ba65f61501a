package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/riseai/rise-chat/internal/model/identity"
)

// Simulator answers with keyword-matched canned replies. It is used when no model is
// configured and as the fallback when a model call fails.
type Simulator struct{}

func NewSimulator() *Simulator {
	return &Simulator{}
}

func (s *Simulator) Simulated() bool {
	return true
}

func (s *Simulator) Respond(_ context.Context, req Request) (string, error) {
	msg := strings.ToLower(req.Message)
	name := req.User.FullName
	if name == "" {
		name = req.User.Username
	}
	manager := req.User.Role == identity.RoleManager

	switch {
	case containsAny(msg, "hello", "hi", "hey"):
		return fmt.Sprintf("Hello %s! I'm Rise AI, your task management assistant. How can I help you today?", name), nil

	case strings.Contains(msg, "task") && containsAny(msg, "show", "view", "list", "my"):
		return "You don't have any tasks yet. Would you like me to help you create one? Just say 'create a new task' to get started!", nil

	case strings.Contains(msg, "create") && strings.Contains(msg, "task"):
		return "**Let's create a new task!**\n\nPlease provide the following information:\n\n" +
			"**Required:**\n- **Title:** Brief description of the task\n- **Description:** Detailed explanation of what needs to be done\n\n" +
			"**Optional:**\n- **Priority:** low, medium, high, or urgent (default: medium)\n\nWhat task would you like to create?", nil

	case containsAny(msg, "statistic", "stats", "analytics"):
		if manager {
			return "**Team Task Statistics:**\n\n- **Total tasks:** 0\n- **Completion rate:** 0%\n\n" +
				"As a manager, you can also view individual team member statistics. Would you like me to show team performance details?", nil
		}
		return "**Your Personal Task Statistics:**\n\n- **Total tasks:** 0\n- **Personal completion rate:** 0%\n\n" +
			"Keep up the great work! Would you like tips on improving your productivity?", nil

	case containsAny(msg, "help", "what can you do"):
		if manager {
			return "**I can help you with:**\n\n- \"Show me all tasks\" - View team tasks\n- \"Create a new task\" - Add tasks for your team\n" +
				"- \"Show task statistics\" - Team performance overview\n- \"Assign task to [employee]\" - Delegate tasks\n\nWhat would you like to do?", nil
		}
		return "**I can help you with:**\n\n- \"Show my tasks\" - View your current tasks\n- \"Create a new task\" - Add new tasks\n" +
			"- \"Update task status\" - Mark tasks as completed\n- \"Show my statistics\" - Your productivity stats\n\nWhat would you like to do today?", nil

	case strings.Contains(msg, "update") && strings.Contains(msg, "status"):
		return "**Update Task Status**\n\nTo update a task status, please tell me:\n- Which task you want to update (by title or ID)\n" +
			"- The new status (pending, in_progress, completed, cancelled)\n\nWhich task would you like to update?", nil

	case containsAny(msg, "thanks", "thank you"):
		return fmt.Sprintf("You're welcome, %s! I'm always here to help you manage your tasks efficiently. Is there anything else you'd like to do?", name), nil

	default:
		return fmt.Sprintf("**Hi %s!**\n\nI'm Rise AI, your personal task management assistant.\n\n**Quick actions you can try:**\n"+
			"- \"Show my tasks\" - View your current tasks\n- \"Create a new task\" - Add a new task\n"+
			"- \"Show statistics\" - See your productivity stats\n- \"Help\" - See all available commands\n\nWhat would you like to do?", name), nil
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
