// Package cli defines the Cobra commands for the risechat terminal client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	chatService "github.com/riseai/rise-chat/internal/service/chat"
)

var version = "dev" // set via ldflags at build time

var errLoginRequired = errors.New("not logged in: run `risechat login` first")

// Execute runs the CLI against the process streams. Called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Run executes one CLI invocation and returns the process exit code.
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	a := newApp(in, out)
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		if errors.Is(err, chatService.ErrAuthRequired) {
			err = errLoginRequired
		}
		fmt.Fprintln(errOut, "Error:", err)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "risechat",
		Short: "Chat with the Rise AI task assistant",
		Long: `risechat is a terminal client for the Rise AI assistant.
Log in once, then chat, browse recent history, or clear it. The session is
kept in the state directory until you log out.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.flags.apiURL, "api-url", "", "Backend base URL (overrides RISECHAT_API_URL)")
	flags.StringVar(&a.flags.stateDir, "state-dir", "", "Directory for session, config and logs")
	flags.StringVar(&a.flags.storage, "storage", "", "Session storage backend: file, sqlite or memory")
	flags.BoolVar(&a.flags.debug, "debug", false, "Write debug-level entries to the log file")

	root.AddCommand(newLoginCmd(a))
	root.AddCommand(newLogoutCmd(a))
	root.AddCommand(newWhoamiCmd(a))
	root.AddCommand(newChatCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newClearHistoryCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newConfigCmd(a))

	return root
}
