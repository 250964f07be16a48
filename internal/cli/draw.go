package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conorfennell/randpick/internal/picker"
)

func newDrawCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "draw [table-id]",
		Short: "Draw a random item (default table if omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := optionalTableID(args)
			if err != nil {
				return err
			}
			res, err := a.svc.Draw(cmd.Context(), id)
			switch {
			case errors.Is(err, picker.ErrEmpty):
				return errors.New("this table has no items, add some with `randpick item add`")
			case errors.Is(err, picker.ErrExhausted):
				return errors.New("every item has been drawn, run `randpick reset` for another round")
			case err != nil:
				return err
			}
			renderDraw(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset [table-id]",
		Short: "Mark every item of a table undrawn",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := optionalTableID(args)
			if err != nil {
				return err
			}
			table, err := a.svc.Reset(cmd.Context(), id)
			if err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), fmt.Sprintf("reset %q", table.Name))
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [table-id]",
		Short: "Show the latest draws of a table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := optionalTableID(args)
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = a.cfg.HistoryLimit
			}
			table, draws, err := a.svc.History(cmd.Context(), id, limit)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), table, draws)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of draws to show (default from history_limit)")
	return cmd
}

func newPrefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.svc.Preferences()
			if err != nil {
				return err
			}
			renderPreferences(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "no-repeat <on|off>",
		Short:     "Toggle no-repeat mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch strings.ToLower(args[0]) {
			case "on", "true", "yes", "1":
				enabled = true
			case "off", "false", "no", "0":
				enabled = false
			default:
				return fmt.Errorf("no-repeat: expected on or off, got %q", args[0])
			}
			if err := a.svc.SetNoRepeat(enabled); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), fmt.Sprintf("no-repeat %s", args[0]))
			return nil
		},
	})
	return cmd
}
