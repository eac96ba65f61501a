package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/riseai/rise-chat/internal/model/identity"
	"github.com/riseai/rise-chat/internal/storage"
)

// Keys owned by the store inside the shared key-value space.
const (
	KeyIdentity  = "riseai_user"
	KeyLoginTime = "riseai_login_time"
)

const zeroDuration = "00:00"

// Store persists the authenticated identity and login time between runs.
type Store struct {
	kv     storage.KV
	logger *slog.Logger
}

// NewStore wraps kv. A nil logger discards diagnostics.
func NewStore(kv storage.KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{kv: kv, logger: logger.With("component", "session_store")}
}

// Save records id as the current session, replacing any previous one.
func (s *Store) Save(ctx context.Context, id identity.Identity, loginAt time.Time) error {
	if err := id.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	if err := s.kv.Set(ctx, KeyIdentity, string(payload)); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	if err := s.kv.Set(ctx, KeyLoginTime, strconv.FormatInt(loginAt.UnixMilli(), 10)); err != nil {
		return fmt.Errorf("save login time: %w", err)
	}
	return nil
}

// Load returns the persisted identity. A corrupt record is cleared and reported as absent.
func (s *Store) Load(ctx context.Context) (identity.Identity, bool) {
	raw, ok, err := s.kv.Get(ctx, KeyIdentity)
	if err != nil {
		s.logger.Error("failed to read identity", "error", err)
		return identity.Identity{}, false
	}
	if !ok {
		return identity.Identity{}, false
	}

	var id identity.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		s.discardCorrupt(ctx, err)
		return identity.Identity{}, false
	}
	if err := id.Validate(); err != nil {
		s.discardCorrupt(ctx, err)
		return identity.Identity{}, false
	}

	return id, true
}

func (s *Store) discardCorrupt(ctx context.Context, cause error) {
	s.logger.Warn("discarding corrupt identity", "error", cause)
	if err := s.Clear(ctx); err != nil {
		s.logger.Error("failed to clear corrupt session", "error", err)
	}
}

// Clear forgets the session. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyIdentity); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	if err := s.kv.Delete(ctx, KeyLoginTime); err != nil {
		return fmt.Errorf("clear login time: %w", err)
	}
	return nil
}

// LoginTime returns the stored login timestamp.
func (s *Store) LoginTime(ctx context.Context) (time.Time, bool) {
	raw, ok, err := s.kv.Get(ctx, KeyLoginTime)
	if err != nil {
		s.logger.Error("failed to read login time", "error", err)
		return time.Time{}, false
	}
	if !ok {
		return time.Time{}, false
	}

	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		s.logger.Warn("ignoring malformed login time", "value", raw, "error", err)
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// ElapsedDuration formats now()-loginTime as mm:ss, or "00:00" without a session.
func (s *Store) ElapsedDuration(ctx context.Context, now func() time.Time) string {
	loginAt, ok := s.LoginTime(ctx)
	if !ok {
		return zeroDuration
	}
	if now == nil {
		now = time.Now
	}
	return FormatElapsed(now().Sub(loginAt))
}

// FormatElapsed renders d as zero-padded minutes and seconds. Minutes are not wrapped
// into hours; negative durations render as zero.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
