package chat

import "github.com/riseai/rise-chat/internal/model/identity"

// QuickAction is a predefined prompt triggered from a single control instead of free text.
type QuickAction string

const (
	QuickShowTasks  QuickAction = "show_tasks"
	QuickCreateTask QuickAction = "create_task"
	QuickTaskStats  QuickAction = "task_stats"
	QuickHelp       QuickAction = "help"
)

var quickPrompts = map[QuickAction]string{
	QuickShowTasks:  "Show me my tasks",
	QuickCreateTask: "I want to create a new task",
	QuickTaskStats:  "Show me task statistics",
	QuickHelp:       "How can you help me?",
}

// Prompt returns the canned prompt for the action. ok is false for keys outside the set.
func (a QuickAction) Prompt() (string, bool) {
	prompt, ok := quickPrompts[a]
	return prompt, ok
}

// QuickActionsFor lists the actions offered to a role, in display order.
// Task statistics are a manager-only control.
func QuickActionsFor(role identity.Role) []QuickAction {
	actions := []QuickAction{QuickShowTasks, QuickCreateTask}
	if role == identity.RoleManager {
		actions = append(actions, QuickTaskStats)
	}
	return append(actions, QuickHelp)
}
