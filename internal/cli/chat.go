package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riseai/rise-chat/internal/model/chat"
	"github.com/riseai/rise-chat/internal/model/identity"
	chatService "github.com/riseai/rise-chat/internal/service/chat"
)

const replHelp = `Commands:
  /quick [action]  list quick actions, or send one
  /clear           clear your chat history
  /history         show the transcript again
  /time            show how long you have been logged in
  /help            show this help
  /quit            leave the chat`

func newChatCmd(a *app) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open an interactive chat with Rise AI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			ctrl, err := a.controller(ctx, a.cfg.HistoryLimit)
			if err != nil {
				return err
			}

			if message != "" {
				return a.send(ctx, ctrl, message, false)
			}
			return a.repl(ctx, ctrl)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Send one message, print the reply and exit")
	return cmd
}

func (a *app) repl(ctx context.Context, ctrl *chatService.Controller) error {
	id, _ := ctrl.Identity()

	a.println(a.view.Transcript(ctrl.Transcript()))
	a.println()
	a.println(a.view.Notice(fmt.Sprintf("Logged in as %s. Type /help for commands.", id.Name())))

	for {
		line, err := a.prompt("> ")
		if errors.Is(err, io.EOF) {
			a.println()
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "/") {
			if err := a.send(ctx, ctrl, line, true); err != nil {
				return err
			}
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "/quit", "/exit":
			return nil
		case "/help":
			a.println(replHelp)
		case "/time":
			a.println("Session time: " + a.sessions.ElapsedDuration(ctx, a.now))
		case "/history":
			a.println(a.view.Transcript(ctrl.Transcript()))
		case "/quick":
			if len(fields) == 1 {
				a.println("Quick actions: " + quickActionList(id.Role))
				continue
			}
			if err := a.quickAction(ctx, ctrl, id.Role, chat.QuickAction(fields[1])); err != nil {
				return err
			}
		case "/clear":
			if err := a.clearHistory(ctx, ctrl, false); err != nil {
				a.println(a.view.Error("Could not clear chat history. Please try again."))
			}
		default:
			a.println(a.view.Notice("Unknown command " + fields[0] + ". Type /help for commands."))
		}
	}
}

// send runs one exchange. With echo set, the user turn is printed before the reply
// arrives.
func (a *app) send(ctx context.Context, ctrl *chatService.Controller, text string, echo bool) error {
	pending, err := ctrl.Begin(text)
	if err != nil {
		return err
	}
	if pending == nil {
		return nil
	}

	if echo {
		a.println(a.view.Turn(pending.User))
		a.println(a.view.Notice("Rise AI is typing..."))
	}

	reply := pending.Await(ctx)
	a.println(a.view.Turn(reply))
	a.println()
	return nil
}

// quickAction sends the canned prompt for action if the user's role offers it.
func (a *app) quickAction(ctx context.Context, ctrl *chatService.Controller, role identity.Role, action chat.QuickAction) error {
	if !slices.Contains(chat.QuickActionsFor(role), action) {
		a.println(a.view.Notice(fmt.Sprintf("Unknown quick action %q.", action)))
		return nil
	}
	prompt, _ := action.Prompt()
	return a.send(ctx, ctrl, prompt, true)
}

// clearHistory confirms unless assumeYes and then clears through the controller.
func (a *app) clearHistory(ctx context.Context, ctrl *chatService.Controller, assumeYes bool) error {
	if !assumeYes {
		ok, err := a.confirm("Clear all chat history?")
		if err != nil {
			return err
		}
		if !ok {
			a.println(a.view.Notice("Kept chat history."))
			return nil
		}
	}

	if err := ctrl.ClearHistory(ctx); err != nil {
		return err
	}
	a.println(a.view.Transcript(ctrl.Transcript()))
	return nil
}
