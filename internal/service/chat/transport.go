package chat

import (
	"context"

	"github.com/riseai/rise-chat/internal/model/chat"
)

// Transport is the network boundary to the chat backend. Implementations own timeouts
// and map every non-success outcome (network error, non-2xx, malformed body) to an error.
type Transport interface {
	SendMessage(ctx context.Context, subjectID, text, timestamp string) (chat.Reply, error)
	// FetchHistory returns at most limit exchanges, newest first.
	FetchHistory(ctx context.Context, subjectID string, limit int) ([]chat.Exchange, error)
	DeleteHistory(ctx context.Context, subjectID string) error
}
