package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conorfennell/randpick/internal/config"
	"github.com/conorfennell/randpick/internal/prefs"
	"github.com/conorfennell/randpick/internal/service"
	"github.com/conorfennell/randpick/internal/storage"
	"github.com/conorfennell/randpick/internal/sync"
)

// app carries what the subcommands share. It is filled in by PersistentPreRunE.
type app struct {
	cfg    *config.Config
	db     *storage.DB
	prefs  *prefs.Store
	svc    *service.Service
	syncer *sync.Syncer
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	setupLogger(cfg.LogLevel)

	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	db, err := storage.Open(storage.DSN(cfg.DBPath))
	if err != nil {
		return err
	}
	slog.Debug("Database opened successfully", "path", cfg.DBPath)

	ps, err := prefs.Open(cfg.PrefsPath)
	if err != nil {
		db.Close()
		return err
	}

	a.cfg = cfg
	a.db = db
	a.prefs = ps
	a.svc = service.New(db, ps)
	a.syncer = sync.New(db, cfg.ReposDir, cfg.SourceExts)
	return nil
}

func (a *app) close() error {
	var errs []error
	if a.prefs != nil {
		errs = append(errs, a.prefs.Close())
		a.prefs = nil
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	return errors.Join(errs...)
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// newRootCmd builds the command tree. The returned app must be closed after Execute.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "randpick",
		Short: "Keep lists of choices and draw from them at random",
		Long: `randpick keeps named lists ("tables") of text items and draws a
random item from them. With no-repeat mode on, drawn items are skipped
until the table is reset.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newTableCmd(a),
		newItemCmd(a),
		newDrawCmd(a),
		newResetCmd(a),
		newHistoryCmd(a),
		newPrefsCmd(a),
		newSourceCmd(a),
		newSyncCmd(a),
		newServeCmd(a),
	)
	return root, a
}

// run executes the command tree with args and releases the stores afterwards.
func run(args []string, stdout, stderr io.Writer) error {
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	return errors.Join(err, a.close())
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		printError(os.Stderr, err)
		return 1
	}
	return 0
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s: not a valid id: %s", what, s)
	}
	return id, nil
}

// optionalTableID reads an optional leading table id; 0 means "the default table".
func optionalTableID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, nil
	}
	return parseID(args[0], "table")
}
