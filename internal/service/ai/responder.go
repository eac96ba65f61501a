package ai

import (
	"context"

	"github.com/riseai/rise-chat/internal/model/chat"
	"github.com/riseai/rise-chat/internal/model/user"
)

// Request carries everything a responder needs to answer one message.
type Request struct {
	User    user.User
	Message string
	// History holds earlier exchanges, newest first, as returned by the history service.
	History []chat.Exchange
}

// Responder produces the assistant reply for a user message.
type Responder interface {
	Respond(ctx context.Context, req Request) (string, error)
	// Simulated reports whether replies come from canned rules rather than a model.
	Simulated() bool
}
