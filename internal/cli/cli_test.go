package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riseai/rise-chat/internal/handler"
	"github.com/riseai/rise-chat/internal/model/user"
	"github.com/riseai/rise-chat/internal/service/ai"
	"github.com/riseai/rise-chat/internal/service/history"
)

type harness struct {
	t        *testing.T
	apiURL   string
	stateDir string
	history  *history.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("RISECHAT_API_URL", "")
	t.Setenv("RISECHAT_STORAGE", "")
	t.Setenv("RISECHAT_HISTORY_LIMIT", "")
	t.Setenv("RISECHAT_TIMEOUT", "")

	historySvc := history.NewService()
	srv := httptest.NewServer(handler.NewRouter(user.NewMemoryStore(user.Seed()), historySvc, ai.NewSimulator(), nil))
	t.Cleanup(srv.Close)

	return &harness{t: t, apiURL: srv.URL, stateDir: t.TempDir(), history: historySvc}
}

func (h *harness) run(input string, args ...string) (string, string, int) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--api-url", h.apiURL, "--state-dir", h.stateDir}, args...)
	code := Run(context.Background(), full, strings.NewReader(input), &out, &errOut)
	return out.String(), errOut.String(), code
}

func (h *harness) login() {
	h.t.Helper()
	_, errOut, code := h.run("", "login", "demo_manager", "--password", "password123")
	require.Equal(h.t, 0, code, errOut)
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out, errOut, code := h.run("", "login", "demo_manager", "-p", "password123")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Welcome, Demo Manager (manager).")
	assert.Contains(t, out, "task_stats")

	out, _, code = h.run("", "whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Demo Manager (demo_manager)")
	assert.Contains(t, out, "Session: 00:0")

	_, _, code = h.run("", "logout")
	require.Equal(t, 0, code)

	_, errOut, code = h.run("", "whoami")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not logged in")
}

func TestLoginPromptsForCredentials(t *testing.T) {
	h := newHarness(t)

	out, errOut, code := h.run("employee@riseai.com\npassword123\n", "login")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Username or email:")
	assert.Contains(t, out, "Welcome, Demo Employee (employee).")
	assert.NotContains(t, out, "task_stats")
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t)

	_, errOut, code := h.run("", "login", "demo_manager", "-p", "wrong")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid username or password")
}

func TestChatRequiresLogin(t *testing.T) {
	h := newHarness(t)

	_, errOut, code := h.run("", "chat", "-m", "hello")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not logged in")
}

func TestChatOneShotRecordsHistory(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, errOut, code := h.run("", "chat", "-m", "help")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Rise AI")

	records, err := h.history.Recent(context.Background(), "demo_manager", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "help", records[0].UserText)
}

func TestChatREPL(t *testing.T) {
	h := newHarness(t)
	h.login()
	_, err := h.history.Record(context.Background(), "demo_manager", "earlier question", "earlier answer")
	require.NoError(t, err)

	input := strings.Join([]string{
		"hello there",
		"/quick",
		"/quick help",
		"/quick dance",
		"/time",
		"/clear",
		"n",
		"/quit",
	}, "\n") + "\n"

	out, errOut, code := h.run(input, "chat")
	require.Equal(t, 0, code, errOut)

	assert.Contains(t, out, "earlier question")
	assert.Contains(t, out, "hello there")
	assert.Contains(t, out, "Quick actions: show_tasks, create_task, task_stats, help")
	assert.Contains(t, out, "How can you help me?")
	assert.Contains(t, out, `Unknown quick action "dance".`)
	assert.Contains(t, out, "Session time: ")
	assert.Contains(t, out, "Kept chat history.")

	records, err := h.history.Recent(context.Background(), "demo_manager", 10)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestChatREPLClearConfirmed(t *testing.T) {
	h := newHarness(t)
	h.login()
	_, err := h.history.Record(context.Background(), "demo_manager", "old", "reply")
	require.NoError(t, err)

	out, errOut, code := h.run("/clear\ny\n", "chat")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Hello! I'm Rise AI")

	records, err := h.history.Recent(context.Background(), "demo_manager", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHistoryAndClearHistory(t *testing.T) {
	h := newHarness(t)
	h.login()
	ctx := context.Background()
	for _, msg := range []string{"first", "second", "third"} {
		_, err := h.history.Record(ctx, "demo_manager", msg, "ok")
		require.NoError(t, err)
	}

	out, errOut, code := h.run("", "history", "--limit", "2")
	require.Equal(t, 0, code, errOut)
	assert.NotContains(t, out, "first")
	assert.Less(t, strings.Index(out, "second"), strings.Index(out, "third"))

	_, errOut, code = h.run("", "clear-history", "--yes")
	require.Equal(t, 0, code, errOut)

	records, err := h.history.Recent(ctx, "demo_manager", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClearHistoryBackendFailure(t *testing.T) {
	h := newHarness(t)
	h.login()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			http.Error(w, `{"success": false, "error": "boom"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "history": []}`))
	}))
	t.Cleanup(failing.Close)
	h.apiURL = failing.URL

	_, errOut, code := h.run("", "clear-history", "--yes")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "could not clear chat history")
}

func TestStatus(t *testing.T) {
	h := newHarness(t)

	out, errOut, code := h.run("", "status")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Chat service is running (simulated responses)")
}

func TestSQLiteStorageKeepsSession(t *testing.T) {
	h := newHarness(t)

	_, errOut, code := h.run("", "--storage", "sqlite", "login", "demo_employee", "-p", "password123")
	require.Equal(t, 0, code, errOut)

	out, _, code := h.run("", "--storage", "sqlite", "whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "demo_employee")

	_, _, code = h.run("", "whoami")
	assert.Equal(t, 1, code)
}

func TestConfigSaveAndShow(t *testing.T) {
	h := newHarness(t)

	out, errOut, code := h.run("", "config", "save")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "config.yaml")

	out, _, code = h.run("", "config", "show")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "api_url: "+h.apiURL)
	assert.Contains(t, out, "history_limit: 5")
}

func TestQuickActionEchoesPromptBeforeReply(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, errOut, code := h.run("/quick show_tasks\n/quit\n", "chat")
	require.Equal(t, 0, code, errOut)

	prompt := strings.Index(out, "Show me my tasks")
	typing := strings.Index(out, "Rise AI is typing...")
	require.NotEqual(t, -1, prompt)
	require.NotEqual(t, -1, typing)
	assert.Less(t, prompt, typing)
}

func TestQuickActionHiddenFromEmployee(t *testing.T) {
	h := newHarness(t)
	_, errOut, code := h.run("", "login", "demo_employee", "-p", "password123")
	require.Equal(t, 0, code, errOut)

	out, errOut, code := h.run("/quick task_stats\n/quit\n", "chat")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `Unknown quick action "task_stats".`)

	records, err := h.history.Recent(context.Background(), "demo_employee", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
