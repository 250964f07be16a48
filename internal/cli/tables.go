package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTableCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "table",
		Aliases: []string{"tables"},
		Short:   "Manage tables",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "List tables",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				tables, err := a.svc.ListTables(cmd.Context())
				if err != nil {
					return err
				}
				renderTables(cmd.OutOrStdout(), tables)
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <name> [items...]",
			Short: "Create a table, optionally with items separated by commas, semicolons or spaces",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				table, err := a.svc.CreateTable(cmd.Context(), args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), fmt.Sprintf("created table %d %q", table.ID, table.Name))
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a table",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "table")
				if err != nil {
					return err
				}
				if err := a.svc.RenameTable(cmd.Context(), id, args[1]); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "renamed")
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Delete a table and its items",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "table")
				if err != nil {
					return err
				}
				if err := a.svc.DeleteTable(cmd.Context(), id); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "removed")
				return nil
			},
		},
		newTableDefaultCmd(a),
	)
	return cmd
}

func newTableDefaultCmd(a *app) *cobra.Command {
	var unset bool
	cmd := &cobra.Command{
		Use:   "default [id]",
		Short: "Set (or with --clear, unset) the table drawn from by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if unset {
				if err := a.svc.ClearDefaultTable(); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "default cleared")
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("usage: randpick table default <id> | --clear")
			}
			id, err := parseID(args[0], "table")
			if err != nil {
				return err
			}
			if err := a.svc.SetDefaultTable(cmd.Context(), id); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), fmt.Sprintf("default table is now %d", id))
			return nil
		},
	}
	cmd.Flags().BoolVar(&unset, "clear", false, "Remove the default table")
	return cmd
}

func newItemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"items"},
		Short:   "Manage the items of a table",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "ls [table-id]",
			Short: "List the items of a table (default table if omitted)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := optionalTableID(args)
				if err != nil {
					return err
				}
				table, err := a.svc.ResolveTable(cmd.Context(), id)
				if err != nil {
					return err
				}
				items, err := a.svc.Items(cmd.Context(), table.ID)
				if err != nil {
					return err
				}
				renderItems(cmd.OutOrStdout(), table, items)
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <table-id> <input...>",
			Short: "Add items separated by commas, semicolons or spaces; duplicates are skipped",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "table")
				if err != nil {
					return err
				}
				added, err := a.svc.AddItems(cmd.Context(), id, strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), fmt.Sprintf("added %d item(s)", len(added)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "edit <item-id> <text>",
			Short: "Change the text of an item; the text must be a single item",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "item")
				if err != nil {
					return err
				}
				if err := a.svc.UpdateItem(cmd.Context(), id, args[1]); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "updated")
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm <item-id>",
			Short: "Remove an item",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "item")
				if err != nil {
					return err
				}
				if err := a.svc.RemoveItem(cmd.Context(), id); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "removed")
				return nil
			},
		},
	)
	return cmd
}
