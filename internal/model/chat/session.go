package chat

// Exchange is one server-side history record: a user message and the assistant reply it
// produced, stored under a single timestamp.
type Exchange struct {
	ID            string `json:"id,omitempty"`
	SubjectID     string `json:"username"`
	UserText      string `json:"user_message"`
	AssistantText string `json:"ai_response"`
	Timestamp     string `json:"timestamp"`
}

// Turns expands the exchange into its user turn followed by its assistant turn.
func (e Exchange) Turns() [2]Turn {
	return [2]Turn{
		{Role: RoleUser, Content: e.UserText, Timestamp: e.Timestamp},
		{Role: RoleAssistant, Content: e.AssistantText, Timestamp: e.Timestamp},
	}
}

// Reply is the assistant answer returned for a single sent message.
type Reply struct {
	Content   string `json:"response"`
	Timestamp string `json:"timestamp,omitempty"`
}
