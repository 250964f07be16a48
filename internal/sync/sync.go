package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/conorfennell/randpick/internal/fingerprint"
	"github.com/conorfennell/randpick/internal/gitsource"
	"github.com/conorfennell/randpick/internal/parser"
	"github.com/conorfennell/randpick/internal/storage"
)

// ErrSourceNotFound is returned for operations on a source id that does not exist.
var ErrSourceNotFound = errors.New("source not found")

// Syncer imports list files from sources into tables.
type Syncer struct {
	db       *storage.DB
	reposDir string
	exts     []string
	progress io.Writer
}

// New creates a Syncer. Git sources are cloned under reposDir and only files
// whose extension is in exts are imported.
func New(db *storage.DB, reposDir string, exts []string) *Syncer {
	return &Syncer{db: db, reposDir: reposDir, exts: exts}
}

// SetProgress sets where git clone/pull progress is written.
func (s *Syncer) SetProgress(w io.Writer) {
	s.progress = w
}

// Report summarizes the reconciliation of one source.
type Report struct {
	SourceID      int64
	Path          string
	TablesCreated int
	TablesUpdated int
	TablesSkipped int
	TablesDeleted int
	ItemsAdded    int
	ItemsRemoved  int
	Errors        []error
}

// AddSource registers a local directory or git URL. Local paths are made absolute.
// Adding a path twice returns the existing source.
func (s *Syncer) AddSource(ctx context.Context, path string) (*storage.Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("source path cannot be empty")
	}

	sourceType := storage.SourceLocal
	if gitsource.IsGitURL(path) {
		sourceType = storage.SourceGit
	} else {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", abs, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("source %s is not a directory", abs)
		}
		path = abs
	}

	existing, err := s.db.FindSourceByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	id, err := s.db.InsertSource(ctx, path, sourceType)
	if err != nil {
		return nil, err
	}
	slog.Info("Source added", "id", id, "type", sourceType, "path", path)
	return s.db.FindSourceByID(ctx, id)
}

// RemoveSource deletes a source. Its tables are kept.
func (s *Syncer) RemoveSource(ctx context.Context, id int64) error {
	src, err := s.db.FindSourceByID(ctx, id)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("source %d: %w", id, ErrSourceNotFound)
	}
	if err := s.db.DeleteSource(ctx, id); err != nil {
		return err
	}
	slog.Info("Source removed", "id", id, "path", src.Path)
	return nil
}

// RunSync iterates over all sources and reconciles them.
// A failing source is logged and reported; the others still run.
func (s *Syncer) RunSync(ctx context.Context) ([]Report, error) {
	slog.Info("Starting sync process for all sources...")
	sources, err := s.db.GetAllSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("No sources configured. Add one with `randpick source add <path/or/url.git>`")
		return nil, nil
	}

	reports := make([]Report, 0, len(sources))
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		reports = append(reports, s.SyncSource(ctx, source))
	}
	slog.Info("Sync process complete.", "sources", len(sources))
	return reports, nil
}

// SyncSource fetches (for git) and reconciles one source.
func (s *Syncer) SyncSource(ctx context.Context, source storage.Source) Report {
	slog.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)
	report := Report{SourceID: source.ID, Path: source.Path}

	dir := source.Path
	if source.Type == storage.SourceGit {
		localRepoPath, err := gitsource.LocalPath(s.reposDir, source.Path)
		if err != nil {
			slog.Error("Error determining local path for git repo", "url", source.Path, "error", err)
			report.Errors = append(report.Errors, err)
			return report
		}
		if err := gitsource.Sync(ctx, source.Path, localRepoPath, s.progress); err != nil {
			slog.Error("Error syncing git repo", "url", source.Path, "error", err)
			report.Errors = append(report.Errors, err)
			return report
		}
		dir = localRepoPath
	}

	s.reconcileLocalSource(ctx, source.ID, dir, &report)
	return report
}

func (s *Syncer) wanted(name string) bool {
	return slices.Contains(s.exts, strings.ToLower(filepath.Ext(name)))
}

// tableName derives a table name from a file path relative to the source root,
// e.g. "food/lunch.txt" -> "food/lunch".
func tableName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}

func (s *Syncer) reconcileLocalSource(ctx context.Context, sourceID int64, dir string, report *Report) {
	foundTables := make(map[string]bool)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.wanted(d.Name()) {
			return nil
		}

		items, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		name := tableName(dir, path)
		foundTables[name] = true
		if err := s.reconcileTable(ctx, sourceID, name, items, report); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("reconciling %s: %w", path, err))
		}
		return nil
	})
	if walkErr != nil {
		slog.Error("Error walking directory", "path", dir, "error", walkErr)
		report.Errors = append(report.Errors, walkErr)
		return
	}

	s.deleteOrphanedTables(ctx, sourceID, foundTables, report)

	if err := s.db.UpdateSourceLastScanned(ctx, sourceID); err != nil {
		slog.Warn("Failed to update last scanned for source", "source_id", sourceID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", dir,
		"created", report.TablesCreated,
		"updated", report.TablesUpdated,
		"skipped", report.TablesSkipped,
		"deleted", report.TablesDeleted,
		"errors", len(report.Errors),
	)
}

// reconcileTable makes the stored table match items. Items that survive keep their drawn state.
func (s *Syncer) reconcileTable(ctx context.Context, sourceID int64, name string, items []string, report *Report) error {
	fp := fingerprint.Hash(items)

	table, err := s.db.FindTableBySource(ctx, sourceID, name)
	if err != nil {
		return err
	}
	if table == nil {
		slog.Info("New table found, inserting...", "name", name, "items", len(items))
		if _, err := s.db.InsertTableWithItems(ctx, name, &sourceID, fp, items); err != nil {
			return err
		}
		report.TablesCreated++
		report.ItemsAdded += len(items)
		return nil
	}
	if table.Fingerprint == fp {
		report.TablesSkipped++
		return nil
	}

	existing, err := s.db.GetItemsByTable(ctx, table.ID)
	if err != nil {
		return err
	}
	want := make(map[string]bool, len(items))
	for _, text := range items {
		want[text] = true
	}
	have := make(map[string]bool, len(existing))
	var stale []int64
	for _, it := range existing {
		if want[it.Text] && !have[it.Text] {
			have[it.Text] = true
			continue
		}
		stale = append(stale, it.ID)
	}
	var fresh []string
	for _, text := range items {
		if !have[text] {
			fresh = append(fresh, text)
		}
	}

	if err := s.db.ReplaceItems(ctx, table.ID, stale, fresh, fp); err != nil {
		return err
	}

	report.TablesUpdated++
	report.ItemsAdded += len(fresh)
	report.ItemsRemoved += len(stale)
	return nil
}

func (s *Syncer) deleteOrphanedTables(ctx context.Context, sourceID int64, found map[string]bool, report *Report) {
	tables, err := s.db.GetTablesBySourceID(ctx, sourceID)
	if err != nil {
		slog.Error("Error getting tables for source", "source_id", sourceID, "error", err)
		report.Errors = append(report.Errors, err)
		return
	}

	for _, t := range tables {
		if found[t.Name] {
			continue
		}
		n, err := s.db.CountTables(ctx)
		if err != nil {
			report.Errors = append(report.Errors, err)
			return
		}
		if n <= 1 {
			slog.Warn("Keeping orphaned table, it is the last one", "id", t.ID, "name", t.Name)
			continue
		}
		slog.Info("Orphaned table, deleting", "id", t.ID, "name", t.Name)
		if err := s.db.DeleteTable(ctx, t.ID); err != nil {
			slog.Warn("Failed to delete orphaned table", "id", t.ID, "error", err)
			report.Errors = append(report.Errors, err)
			continue
		}
		report.TablesDeleted++
	}
}
