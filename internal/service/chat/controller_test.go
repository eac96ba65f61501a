package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riseai/rise-chat/internal/model/chat"
	"github.com/riseai/rise-chat/internal/model/identity"
)

type fakeTransport struct {
	mu sync.Mutex

	sendFn   func(text string) (chat.Reply, error)
	history  []chat.Exchange
	fetchErr error
	clearErr error

	sends   []string
	fetches int
	deletes int
}

func (f *fakeTransport) SendMessage(_ context.Context, subjectID, text, timestamp string) (chat.Reply, error) {
	f.mu.Lock()
	f.sends = append(f.sends, text)
	fn := f.sendFn
	f.mu.Unlock()

	if fn != nil {
		return fn(text)
	}
	return chat.Reply{Content: "echo: " + text}, nil
}

func (f *fakeTransport) FetchHistory(_ context.Context, subjectID string, limit int) ([]chat.Exchange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.history, nil
}

func (f *fakeTransport) DeleteHistory(_ context.Context, subjectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	return f.clearErr
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends) + f.fetches + f.deletes
}

func employee() *identity.Identity {
	return &identity.Identity{SubjectID: "demo_employee", DisplayName: "Demo Employee", Role: identity.RoleEmployee}
}

func fixedClock() func() time.Time {
	base := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func newReadyController(t *testing.T, tr *fakeTransport, opts ...Option) *Controller {
	t.Helper()
	c := NewController(tr, append([]Option{WithClock(fixedClock())}, opts...)...)
	require.NoError(t, c.Initialize(context.Background(), employee()))
	return c
}

func TestInitializeWithoutIdentityNeverCallsTransport(t *testing.T) {
	tr := &fakeTransport{}
	c := NewController(tr)

	err := c.Initialize(context.Background(), nil)
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Zero(t, tr.calls())
	assert.Empty(t, c.Transcript())

	_, err = c.Submit(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.ErrorIs(t, c.ClearHistory(context.Background()), ErrAuthRequired)
	assert.Zero(t, tr.calls())
}

func TestInitializeRejectsInvalidIdentity(t *testing.T) {
	tr := &fakeTransport{}
	c := NewController(tr)

	err := c.Initialize(context.Background(), &identity.Identity{SubjectID: "x", Role: "intern"})
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Zero(t, tr.calls())
}

func TestInitializeMergesHistory(t *testing.T) {
	tr := &fakeTransport{history: []chat.Exchange{
		{UserText: "c", AssistantText: "d", Timestamp: "2026-10-14T10:00:02Z"},
		{UserText: "a", AssistantText: "b", Timestamp: "2026-10-14T10:00:01Z"},
	}}
	c := newReadyController(t, tr)

	snap := c.Transcript()
	require.Len(t, snap, 4)
	assert.Equal(t, []string{"a", "b", "c", "d"}, contents(snap))
	assert.Equal(t, chat.RoleUser, snap[0].Role)
	assert.Equal(t, chat.RoleAssistant, snap[1].Role)
}

func TestInitializeHistoryFailureIsNotFatal(t *testing.T) {
	tr := &fakeTransport{fetchErr: errors.New("connection refused")}
	c := NewController(tr)

	require.NoError(t, c.Initialize(context.Background(), employee()))
	assert.Empty(t, c.Transcript())
	assert.Equal(t, StateIdle, c.State())

	_, ok := c.Identity()
	assert.True(t, ok)
}

func TestSubmitOrdersTurns(t *testing.T) {
	tr := &fakeTransport{}
	c := newReadyController(t, tr)
	ctx := context.Background()

	for _, msg := range []string{"one", "two", "three"} {
		reply, err := c.Submit(ctx, msg)
		require.NoError(t, err)
		require.NotNil(t, reply)
		assert.Equal(t, "echo: "+msg, reply.Content)
	}

	snap := c.Transcript()
	require.Len(t, snap, 6)
	for i, turn := range snap {
		if i%2 == 0 {
			assert.Equal(t, chat.RoleUser, turn.Role)
		} else {
			assert.Equal(t, chat.RoleAssistant, turn.Role)
			assert.Equal(t, "echo: "+snap[i-1].Content, turn.Content)
		}
	}
	assert.Equal(t, StateIdle, c.State())
}

func TestSubmitBlankIsNoop(t *testing.T) {
	tr := &fakeTransport{}
	c := newReadyController(t, tr)
	before := tr.calls()

	for _, text := range []string{"", "   ", "\n\t"} {
		reply, err := c.Submit(context.Background(), text)
		assert.NoError(t, err)
		assert.Nil(t, reply)
	}

	assert.Empty(t, c.Transcript())
	assert.Equal(t, before, tr.calls())
}

func TestSubmitTransportFailureAppendsErrorTurn(t *testing.T) {
	tr := &fakeTransport{sendFn: func(string) (chat.Reply, error) {
		return chat.Reply{}, errors.New("HTTP 502: upstream exploded")
	}}
	c := newReadyController(t, tr)

	reply, err := c.Submit(context.Background(), "hello")
	require.NoError(t, err)
	require.NotNil(t, reply)

	snap := c.Transcript()
	require.Len(t, snap, 2)
	assert.Equal(t, chat.RoleUser, snap[0].Role)
	assert.Equal(t, "hello", snap[0].Content)
	assert.False(t, snap[0].IsError)
	assert.Equal(t, chat.RoleAssistant, snap[1].Role)
	assert.True(t, snap[1].IsError)
	assert.Equal(t, ErrorReply, snap[1].Content)
	assert.NotContains(t, snap[1].Content, "upstream")
	assert.Equal(t, StateIdle, c.State())
}

func TestSubmitEmptyReplyIsTreatedAsFailure(t *testing.T) {
	tr := &fakeTransport{sendFn: func(string) (chat.Reply, error) {
		return chat.Reply{Content: "  "}, nil
	}}
	c := newReadyController(t, tr)

	reply, err := c.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.True(t, reply.IsError)
}

func TestSubmitTrimsText(t *testing.T) {
	tr := &fakeTransport{}
	c := newReadyController(t, tr)

	_, err := c.Submit(context.Background(), "  hi there \n")
	require.NoError(t, err)
	assert.Equal(t, "hi there", c.Transcript()[0].Content)
	assert.Equal(t, []string{"hi there"}, tr.sends)
}

func TestBeginRendersUserTurnBeforeReply(t *testing.T) {
	release := make(chan struct{})
	tr := &fakeTransport{sendFn: func(text string) (chat.Reply, error) {
		<-release
		return chat.Reply{Content: "done"}, nil
	}}
	c := newReadyController(t, tr)

	pending, err := c.Begin("hello")
	require.NoError(t, err)
	require.NotNil(t, pending)

	snap := c.Transcript()
	require.Len(t, snap, 1)
	assert.Equal(t, pending.User, snap[0])
	assert.Equal(t, StateAwaitingReply, c.State())

	_, err = c.Begin("second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, c.ClearHistory(context.Background()), ErrBusy)

	close(release)
	reply := pending.Await(context.Background())
	assert.Equal(t, "done", reply.Content)
	assert.Equal(t, reply, pending.Await(context.Background()))
	assert.Equal(t, StateIdle, c.State())
	assert.Len(t, c.Transcript(), 2)
}

func TestSubmitWhileAwaitingIsRejected(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	tr := &fakeTransport{sendFn: func(text string) (chat.Reply, error) {
		close(started)
		<-release
		return chat.Reply{Content: "ok"}, nil
	}}
	c := newReadyController(t, tr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Submit(context.Background(), "first")
	}()
	<-started

	reply, err := c.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Nil(t, reply)

	close(release)
	<-done

	assert.Equal(t, []string{"first", "ok"}, contents(c.Transcript()))
}

func TestStateReturnsToIdleWhenTransportPanics(t *testing.T) {
	tr := &fakeTransport{sendFn: func(string) (chat.Reply, error) {
		panic("boom")
	}}
	c := newReadyController(t, tr)

	assert.Panics(t, func() { _, _ = c.Submit(context.Background(), "hello") })
	assert.Equal(t, StateIdle, c.State())
}

func TestSubmitQuickAction(t *testing.T) {
	tr := &fakeTransport{}
	c := newReadyController(t, tr)

	reply, err := c.SubmitQuickAction(context.Background(), chat.QuickShowTasks)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, []string{"Show me my tasks"}, tr.sends)

	reply, err = c.SubmitQuickAction(context.Background(), chat.QuickAction("launch_rockets"))
	assert.NoError(t, err)
	assert.Nil(t, reply)
	assert.Len(t, tr.sends, 1)
	assert.Len(t, c.Transcript(), 2)
}

func TestClearHistorySuccess(t *testing.T) {
	tr := &fakeTransport{history: []chat.Exchange{{UserText: "a", AssistantText: "b", Timestamp: "2026-10-14T10:00:00Z"}}}
	c := newReadyController(t, tr)
	_, err := c.Submit(context.Background(), "hello")
	require.NoError(t, err)

	require.NoError(t, c.ClearHistory(context.Background()))

	snap := c.Transcript()
	require.Len(t, snap, 1)
	assert.Equal(t, chat.RoleAssistant, snap[0].Role)
	assert.Equal(t, Greeting, snap[0].Content)
	assert.Equal(t, 1, tr.deletes)
	assert.Equal(t, StateIdle, c.State())
}

func TestClearHistoryFailureLeavesTranscript(t *testing.T) {
	tr := &fakeTransport{
		history:  []chat.Exchange{{UserText: "a", AssistantText: "b", Timestamp: "2026-10-14T10:00:00Z"}},
		clearErr: errors.New("HTTP 500"),
	}
	c := newReadyController(t, tr)
	_, err := c.Submit(context.Background(), "hello")
	require.NoError(t, err)
	before := c.Transcript()

	err = c.ClearHistory(context.Background())
	require.Error(t, err)
	assert.Equal(t, before, c.Transcript())
	assert.Equal(t, StateIdle, c.State())
}

func TestWithHistoryLimitClamps(t *testing.T) {
	assert.Equal(t, 1, NewController(&fakeTransport{}, WithHistoryLimit(0)).historyLimit)
	assert.Equal(t, MaxHistoryLimit, NewController(&fakeTransport{}, WithHistoryLimit(500)).historyLimit)
	assert.Equal(t, 10, NewController(&fakeTransport{}, WithHistoryLimit(10)).historyLimit)
	assert.Equal(t, DefaultHistoryLimit, NewController(&fakeTransport{}).historyLimit)
}

func contents(turns []chat.Turn) []string {
	out := make([]string, len(turns))
	for i, turn := range turns {
		out[i] = turn.Content
	}
	return out
}
