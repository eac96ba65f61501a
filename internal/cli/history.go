package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent chat history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				limit = a.cfg.HistoryLimit
			}

			ctrl, err := a.controller(cmd.Context(), limit)
			if err != nil {
				return err
			}
			a.println(a.view.Transcript(ctrl.Transcript()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of exchanges to fetch (defaults to the configured limit)")
	return cmd
}

func newClearHistoryCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear-history",
		Short: "Delete your chat history on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			ctrl, err := a.controller(ctx, a.cfg.HistoryLimit)
			if err != nil {
				return err
			}
			if err := a.clearHistory(ctx, ctrl, yes); err != nil {
				return errors.New("could not clear chat history, please try again")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the chat service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.client("").Status(cmd.Context())
			if err != nil {
				a.logger.Error("status check failed", "error", err)
				return fmt.Errorf("chat service unavailable at %s", a.cfg.APIURL)
			}

			mode := "model responses"
			if st.AISimulation {
				mode = "simulated responses"
			}
			a.println(fmt.Sprintf("%s (%s)", st.Status, mode))
			return nil
		},
	}
}
