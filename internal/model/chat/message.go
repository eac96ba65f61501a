package chat

import (
	"strings"
	"time"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TimestampLayout is the ISO-8601 layout used for every turn timestamp.
const TimestampLayout = time.RFC3339Nano

// Turn is one rendered message in a transcript. Turns are values and are never edited
// after they are appended.
type Turn struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	IsError   bool   `json:"isError,omitempty"`
}

// NewTurn builds a turn stamped with t in UTC.
func NewTurn(role Role, content string, t time.Time) Turn {
	return Turn{
		Role:      role,
		Content:   content,
		Timestamp: FormatTimestamp(t),
	}
}

// FormatTimestamp renders t the way turns store it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Time parses the turn timestamp. ok is false when the stored value is not ISO-8601.
func (t Turn) Time() (time.Time, bool) {
	parsed, err := time.Parse(TimestampLayout, strings.TrimSpace(t.Timestamp))
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// Key is the (role, content, timestamp) triple used for duplicate detection.
func (t Turn) Key() TurnKey {
	return TurnKey{Role: t.Role, Content: t.Content, Timestamp: t.Timestamp}
}

// TurnKey identifies a turn for de-duplication.
type TurnKey struct {
	Role      Role
	Content   string
	Timestamp string
}
