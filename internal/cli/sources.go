package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conorfennell/randpick/internal/web"
)

func newSourceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "source",
		Aliases: []string{"sources"},
		Short:   "Manage directories and git repositories tables are imported from",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <path/or/url.git>",
			Short: "Register a source; run `randpick sync` to import it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				src, err := a.syncer.AddSource(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), fmt.Sprintf("source %d (%s) %s", src.ID, src.Type, src.Path))
				return nil
			},
		},
		&cobra.Command{
			Use:   "ls",
			Short: "List sources",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				sources, err := a.db.GetAllSources(cmd.Context())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(sources) == 0 {
					fmt.Fprintln(w, mutedStyle.Render("no sources"))
					return nil
				}
				for _, s := range sources {
					scanned := "never"
					if s.LastScanned.Valid {
						scanned = s.LastScanned.Time.Format("2006-01-02 15:04")
					}
					fmt.Fprintf(w, "%3d  %-5s  %s  %s\n", s.ID, s.Type, s.Path, mutedStyle.Render("scanned "+scanned))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Remove a source; its tables are kept",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0], "source")
				if err != nil {
					return err
				}
				if err := a.syncer.RemoveSource(cmd.Context(), id); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "removed")
				return nil
			},
		},
	)
	return cmd
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Import tables from every source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.syncer.SetProgress(cmd.ErrOrStderr())
			reports, err := a.syncer.RunSync(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(reports) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("no sources, add one with `randpick source add <path/or/url.git>`"))
				return nil
			}
			for _, r := range reports {
				fmt.Fprintf(w, "%s  created %d, updated %d, unchanged %d, deleted %d, +%d/-%d items\n",
					titleStyle.Render(r.Path),
					r.TablesCreated, r.TablesUpdated, r.TablesSkipped, r.TablesDeleted,
					r.ItemsAdded, r.ItemsRemoved,
				)
				for _, e := range r.Errors {
					fmt.Fprintf(w, "  %s\n", errorStyle.Render("- "+e.Error()))
				}
			}
			return nil
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := web.NewServer(a.svc, a.db, a.syncer, a.cfg.HistoryLimit)
			return srv.ListenAndServe(ctx, a.cfg.Addr)
		},
	}
}
