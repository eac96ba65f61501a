package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riseai/rise-chat/internal/client"
	"github.com/riseai/rise-chat/internal/model/chat"
	"github.com/riseai/rise-chat/internal/model/identity"
)

func newLoginCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login [username-or-email]",
		Short: "Log in and store the session locally",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			login := ""
			if len(args) == 1 {
				login = args[0]
			}
			if strings.TrimSpace(login) == "" {
				var err error
				if login, err = a.prompt("Username or email: "); err != nil {
					return err
				}
			}
			login = strings.TrimSpace(login)

			if password == "" {
				var err error
				if password, err = a.readSecret("Password: "); err != nil {
					return err
				}
			}
			if login == "" || password == "" {
				return errors.New("username or email and password are required")
			}

			id, err := a.client("").Login(ctx, login, password)
			if errors.Is(err, client.ErrInvalidCredentials) {
				return errors.New("invalid username or password")
			}
			if err != nil {
				a.logger.Error("login failed", "login", login, "error", err)
				return fmt.Errorf("login failed: %w", err)
			}

			if err := a.sessions.Save(ctx, id, a.now()); err != nil {
				return fmt.Errorf("saving session: %w", err)
			}
			a.logger.Info("logged in", "subject_id", id.SubjectID, "role", string(id.Role))

			a.println(fmt.Sprintf("Welcome, %s (%s).", id.Name(), id.Role))
			a.println(a.view.Notice("Quick actions: " + quickActionList(id.Role)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.sessions.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clearing session: %w", err)
			}
			a.println("Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user and session time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			id, ok := a.sessions.Load(ctx)
			if !ok {
				return errLoginRequired
			}

			a.println(fmt.Sprintf("%s (%s)", id.Name(), id.SubjectID))
			if id.Email != "" {
				a.println("Email:   " + id.Email)
			}
			a.println("Role:    " + string(id.Role))
			if at, ok := a.sessions.LoginTime(ctx); ok {
				a.println("Since:   " + at.Local().Format("2006-01-02 15:04:05"))
			}
			a.println("Session: " + a.sessions.ElapsedDuration(ctx, a.now))
			return nil
		},
	}
}

func quickActionList(role identity.Role) string {
	actions := chat.QuickActionsFor(role)
	names := make([]string, len(actions))
	for i, action := range actions {
		names[i] = string(action)
	}
	return strings.Join(names, ", ")
}
