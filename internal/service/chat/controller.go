// Package chat drives one authenticated chat session: optimistic sends, history merge and
// history deletion on top of a Transcript.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/riseai/rise-chat/internal/model/chat"
	"github.com/riseai/rise-chat/internal/model/identity"
	"github.com/riseai/rise-chat/internal/service/transcript"
)

var (
	ErrAuthRequired = errors.New("authentication required")
	ErrBusy         = errors.New("another request is still in flight")
)

const (
	DefaultHistoryLimit = 5
	MaxHistoryLimit     = 50

	// ErrorReply replaces the assistant answer whenever a send fails.
	ErrorReply = "Sorry, I encountered an error. Please try again."
	// Greeting opens a freshly cleared conversation.
	Greeting = "Hello! I'm Rise AI, your task management assistant. How can I help you today?"
)

// State is the controller's position in its send cycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingReply
	StateClearing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateClearing:
		return "clearing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the diagnostic sink that receives raw transport errors.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp turns.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithHistoryLimit sets how many exchanges Initialize requests. Values are clamped
// to 1..MaxHistoryLimit.
func WithHistoryLimit(limit int) Option {
	return func(c *Controller) {
		c.historyLimit = clampLimit(limit)
	}
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

// Controller serialises chat operations for one identity. At most one send or clear is
// in flight; anything issued meanwhile is rejected with ErrBusy.
type Controller struct {
	transport    Transport
	transcript   *transcript.Transcript
	logger       *slog.Logger
	now          func() time.Time
	historyLimit int

	mu       sync.Mutex
	state    State
	identity *identity.Identity
}

// NewController returns an idle, uninitialised controller.
func NewController(transport Transport, opts ...Option) *Controller {
	c := &Controller{
		transport:    transport,
		transcript:   transcript.New(),
		logger:       slog.New(slog.DiscardHandler),
		now:          time.Now,
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "chat_controller")
	return c
}

// Initialize binds the controller to id and merges recent server history. A nil or
// invalid identity yields ErrAuthRequired and the caller should send the user to login.
// History fetch failures are logged and otherwise ignored.
func (c *Controller) Initialize(ctx context.Context, id *identity.Identity) error {
	if id == nil {
		return ErrAuthRequired
	}
	if err := id.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}

	bound := *id
	c.mu.Lock()
	c.identity = &bound
	c.mu.Unlock()

	log := c.logger.With("subject_id", bound.SubjectID, "limit", c.historyLimit)

	records, err := c.transport.FetchHistory(ctx, bound.SubjectID, c.historyLimit)
	if err != nil {
		log.Warn("failed to load chat history", "error", err)
		return nil
	}

	added := c.transcript.MergeHistory(records)
	log.Info("merged chat history", "records", len(records), "turns_added", added)
	return nil
}

// Identity returns the bound identity, if any.
func (c *Controller) Identity() (identity.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return identity.Identity{}, false
	}
	return *c.identity, true
}

// State reports the current send state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns the turns in display order.
func (c *Controller) Transcript() []chat.Turn {
	return c.transcript.Snapshot()
}

// Pending is a send whose user turn is already in the transcript and whose reply has not
// been resolved yet. Await must be called exactly once per Pending to release the
// controller; extra calls return the same turn.
type Pending struct {
	c         *Controller
	subjectID string
	text      string

	// User is the optimistic turn appended by Begin.
	User chat.Turn

	once  sync.Once
	reply chat.Turn
}

// Begin appends the user turn for text and marks the controller as awaiting a reply.
// Blank text is ignored and returns a nil Pending.
func (c *Controller) Begin(text string) (*Pending, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	c.mu.Lock()
	if c.identity == nil {
		c.mu.Unlock()
		return nil, ErrAuthRequired
	}
	if c.state != StateIdle {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.state = StateAwaitingReply
	subjectID := c.identity.SubjectID
	c.mu.Unlock()

	userTurn := chat.NewTurn(chat.RoleUser, text, c.now())
	c.transcript.Append(userTurn)

	return &Pending{
		c:         c,
		subjectID: subjectID,
		text:      text,
		User:      userTurn,
	}, nil
}

// Await sends the message and appends the assistant turn. Failures never surface as
// errors here: they become an error turn with a generic message, and the cause is logged.
func (p *Pending) Await(ctx context.Context) chat.Turn {
	p.once.Do(func() {
		p.reply = p.c.complete(ctx, p)
	})
	return p.reply
}

func (c *Controller) complete(ctx context.Context, p *Pending) (turn chat.Turn) {
	defer c.release()

	log := c.logger.With("subject_id", p.subjectID)

	reply, err := c.transport.SendMessage(ctx, p.subjectID, p.text, p.User.Timestamp)
	if err == nil && strings.TrimSpace(reply.Content) == "" {
		err = errors.New("empty reply from backend")
	}
	if err != nil {
		log.Error("send message failed", "error", err)
		turn = chat.NewTurn(chat.RoleAssistant, ErrorReply, c.now())
		turn.IsError = true
	} else {
		turn = chat.NewTurn(chat.RoleAssistant, reply.Content, c.now())
	}

	c.transcript.Append(turn)
	return turn
}

func (c *Controller) release() {
	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
}

// Submit sends text and waits for the reply turn. It returns (nil, nil) for blank text.
func (c *Controller) Submit(ctx context.Context, text string) (*chat.Turn, error) {
	pending, err := c.Begin(text)
	if err != nil || pending == nil {
		return nil, err
	}
	reply := pending.Await(ctx)
	return &reply, nil
}

// SubmitQuickAction sends the canned prompt for action. Keys outside the known set are
// ignored.
func (c *Controller) SubmitQuickAction(ctx context.Context, action chat.QuickAction) (*chat.Turn, error) {
	prompt, ok := action.Prompt()
	if !ok {
		c.logger.Debug("ignoring unknown quick action", "action", string(action))
		return nil, nil
	}
	return c.Submit(ctx, prompt)
}

// ClearHistory deletes the server history and, once that succeeds, replaces the
// transcript with a single greeting. Callers must obtain user confirmation first.
// On failure the transcript is left as it was.
func (c *Controller) ClearHistory(ctx context.Context) error {
	c.mu.Lock()
	if c.identity == nil {
		c.mu.Unlock()
		return ErrAuthRequired
	}
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateClearing
	subjectID := c.identity.SubjectID
	c.mu.Unlock()
	defer c.release()

	if err := c.transport.DeleteHistory(ctx, subjectID); err != nil {
		c.logger.Error("clear history failed", "subject_id", subjectID, "error", err)
		return fmt.Errorf("clear history: %w", err)
	}

	c.transcript.Clear()
	c.transcript.Append(chat.NewTurn(chat.RoleAssistant, Greeting, c.now()))
	c.logger.Info("chat history cleared", "subject_id", subjectID)
	return nil
}
