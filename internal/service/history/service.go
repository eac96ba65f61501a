package history

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/riseai/rise-chat/internal/model/chat"
)

var (
	ErrUserRequired    = errors.New("username is required")
	ErrMessageRequired = errors.New("message is required")
)

const DefaultLimit = 10

// Service keeps per-user chat exchanges in memory for the development backend.
type Service struct {
	mu        sync.RWMutex
	exchanges map[string][]chat.Exchange
	now       func() time.Time
}

// NewService bootstraps an empty in-memory history.
func NewService() *Service {
	return &Service{
		exchanges: make(map[string][]chat.Exchange),
		now:       time.Now,
	}
}

// Record stores one completed exchange for username.
func (s *Service) Record(_ context.Context, username, userText, assistantText string) (chat.Exchange, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return chat.Exchange{}, ErrUserRequired
	}
	if strings.TrimSpace(userText) == "" {
		return chat.Exchange{}, ErrMessageRequired
	}

	exchange := chat.Exchange{
		ID:            uuid.NewString(),
		SubjectID:     username,
		UserText:      userText,
		AssistantText: assistantText,
		Timestamp:     chat.FormatTimestamp(s.now()),
	}

	s.mu.Lock()
	s.exchanges[username] = append(s.exchanges[username], exchange)
	s.mu.Unlock()

	return exchange, nil
}

// Recent returns up to limit exchanges for username, newest first. A non-positive limit
// uses DefaultLimit.
func (s *Service) Recent(_ context.Context, username string, limit int) ([]chat.Exchange, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrUserRequired
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.exchanges[username]
	n := min(limit, len(stored))

	out := make([]chat.Exchange, 0, n)
	for i := len(stored) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

// Clear deletes every exchange for username and returns how many were removed.
func (s *Service) Clear(_ context.Context, username string) (int, error) {
	if strings.TrimSpace(username) == "" {
		return 0, ErrUserRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.exchanges[username])
	delete(s.exchanges, username)
	return removed, nil
}
