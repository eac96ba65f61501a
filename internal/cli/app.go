package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/riseai/rise-chat/internal/client"
	"github.com/riseai/rise-chat/internal/config"
	"github.com/riseai/rise-chat/internal/model/identity"
	"github.com/riseai/rise-chat/internal/render"
	chatService "github.com/riseai/rise-chat/internal/service/chat"
	"github.com/riseai/rise-chat/internal/service/session"
	"github.com/riseai/rise-chat/internal/storage"
)

const logFileName = "risechat.log"

type rootFlags struct {
	apiURL   string
	stateDir string
	storage  string
	debug    bool
}

// app holds the state shared by every command of one invocation.
type app struct {
	flags rootFlags

	in    io.Reader
	lines *bufio.Reader
	out   io.Writer
	now   func() time.Time

	cfg      config.ClientConfig
	logger   *slog.Logger
	sessions *session.Store
	view     *render.Terminal
	closers  []func() error
}

func newApp(in io.Reader, out io.Writer) *app {
	return &app{
		in:    in,
		lines: bufio.NewReader(in),
		out:   out,
		now:   time.Now,
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadClient(a.flags.stateDir)
	if err != nil {
		return err
	}
	if a.flags.apiURL != "" {
		cfg.APIURL = a.flags.apiURL
	}
	if a.flags.storage != "" {
		cfg.Storage = a.flags.storage
	}
	a.cfg = cfg

	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	logFile, err := os.OpenFile(filepath.Join(cfg.StateDir, logFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	a.closers = append(a.closers, logFile.Close)

	level := slog.LevelInfo
	if a.flags.debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level}))

	kv, closeKV, err := storage.Open(cfg.Storage, cfg.StateDir, a.logger)
	if err != nil {
		return fmt.Errorf("opening session storage: %w", err)
	}
	a.closers = append(a.closers, closeKV)

	a.sessions = session.NewStore(kv, a.logger)
	a.view = render.NewTerminal(a.out, nil)

	a.logger.Debug("command started", "command", cmd.CommandPath(), "api_url", cfg.APIURL, "storage", cfg.Storage)
	return nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

// client returns a transport bound to the configured backend.
func (a *app) client(token string) *client.Client {
	return client.New(a.cfg.APIURL,
		client.WithTimeout(a.cfg.Timeout),
		client.WithLogger(a.logger),
		client.WithAuthToken(token),
	)
}

// controller loads the stored session and returns an initialized chat controller.
func (a *app) controller(ctx context.Context, limit int) (*chatService.Controller, error) {
	var current *identity.Identity
	if id, ok := a.sessions.Load(ctx); ok {
		current = &id
	}

	token := ""
	if current != nil {
		token = current.AuthToken
	}

	ctrl := chatService.NewController(a.client(token),
		chatService.WithLogger(a.logger),
		chatService.WithClock(a.now),
		chatService.WithHistoryLimit(limit),
	)
	if err := ctrl.Initialize(ctx, current); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func (a *app) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *app) readLine() (string, error) {
	line, err := a.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	return a.readLine()
}

// readSecret reads a line without echo when input is a terminal.
func (a *app) readSecret(label string) (string, error) {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.out, label)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(secret), nil
	}
	return a.prompt(label)
}

// confirm asks a yes/no question; anything but y or yes is a no.
func (a *app) confirm(question string) (bool, error) {
	answer, err := a.prompt(question + " [y/N] ")
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
