package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/randpick/internal/storage"
)

func setup(t *testing.T) (*storage.DB, *Syncer, string) {
	t.Helper()
	dir := t.TempDir()

	db, err := storage.Open(storage.DSN(filepath.Join(dir, "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	lists := filepath.Join(dir, "lists")
	require.NoError(t, os.MkdirAll(filepath.Join(lists, "food"), 0o755))
	return db, New(db, filepath.Join(dir, "repos"), []string{".txt", ".md"}), lists
}

func writeList(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func texts(t *testing.T, db *storage.DB, tableID int64) []string {
	t.Helper()
	items, err := db.GetItemsByTable(context.Background(), tableID)
	require.NoError(t, err)
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

func TestAddSource(t *testing.T) {
	ctx := context.Background()
	_, s, lists := setup(t)

	src, err := s.AddSource(ctx, lists)
	require.NoError(t, err)
	assert.Equal(t, storage.SourceLocal, src.Type)

	again, err := s.AddSource(ctx, lists)
	require.NoError(t, err)
	assert.Equal(t, src.ID, again.ID, "adding twice returns the same source")

	git, err := s.AddSource(ctx, "https://github.com/u/lists.git")
	require.NoError(t, err)
	assert.Equal(t, storage.SourceGit, git.Type)

	_, err = s.AddSource(ctx, filepath.Join(lists, "missing"))
	assert.Error(t, err)

	_, err = s.AddSource(ctx, "  ")
	assert.Error(t, err)
}

func TestRunSync_ImportsAndReconciles(t *testing.T) {
	ctx := context.Background()
	db, s, lists := setup(t)

	writeList(t, filepath.Join(lists, "drinks.txt"), "tea, coffee, juice")
	writeList(t, filepath.Join(lists, "food", "lunch.md"), "# today\nsushi ramen")
	writeList(t, filepath.Join(lists, "ignored.json"), `["x"]`)

	src, err := s.AddSource(ctx, lists)
	require.NoError(t, err)

	reports, err := s.RunSync(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Empty(t, reports[0].Errors)
	assert.Equal(t, 2, reports[0].TablesCreated)
	assert.Equal(t, 5, reports[0].ItemsAdded)

	drinks, err := db.FindTableBySource(ctx, src.ID, "drinks")
	require.NoError(t, err)
	require.NotNil(t, drinks)
	assert.Equal(t, []string{"tea", "coffee", "juice"}, texts(t, db, drinks.ID))

	lunch, err := db.FindTableBySource(ctx, src.ID, "food/lunch")
	require.NoError(t, err)
	require.NotNil(t, lunch)

	// Draw "tea", then edit the file: tea survives with its flag, juice goes, water arrives.
	items, err := db.GetItemsByTable(ctx, drinks.ID)
	require.NoError(t, err)
	require.NoError(t, db.MarkDrawn(ctx, items[0].ID, time.Now()))
	writeList(t, filepath.Join(lists, "drinks.txt"), "tea coffee water")
	require.NoError(t, os.Remove(filepath.Join(lists, "food", "lunch.md")))

	reports, err = s.RunSync(ctx)
	require.NoError(t, err)
	r := reports[0]
	assert.Equal(t, 1, r.TablesUpdated)
	assert.Equal(t, 1, r.TablesDeleted)
	assert.Equal(t, 1, r.ItemsAdded)
	assert.Equal(t, 1, r.ItemsRemoved)

	assert.Equal(t, []string{"tea", "coffee", "water"}, texts(t, db, drinks.ID))
	undrawn, err := db.GetUndrawnItems(ctx, drinks.ID)
	require.NoError(t, err)
	assert.Len(t, undrawn, 2, "tea keeps its drawn flag")

	gone, err := db.FindTableByID(ctx, lunch.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// Unchanged content is skipped.
	reports, err = s.RunSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reports[0].TablesSkipped)
	assert.Zero(t, reports[0].TablesUpdated)
}

func TestRunSync_NoSources(t *testing.T) {
	_, s, _ := setup(t)

	reports, err := s.RunSync(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestTableName(t *testing.T) {
	root := filepath.Join("a", "b")
	assert.Equal(t, "lunch", tableName(root, filepath.Join(root, "lunch.txt")))
	assert.Equal(t, "food/dinner", tableName(root, filepath.Join(root, "food", "dinner.md")))
}

func TestRunSync_KeepsLastTable(t *testing.T) {
	ctx := context.Background()
	db, s, lists := setup(t)

	seeded, err := db.GetAllTables(ctx)
	require.NoError(t, err)
	for _, table := range seeded {
		require.NoError(t, db.DeleteTable(ctx, table.ID))
	}

	writeList(t, filepath.Join(lists, "only.txt"), "heads tails")
	src, err := s.AddSource(ctx, lists)
	require.NoError(t, err)
	reports, err := s.RunSync(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, reports[0].TablesCreated)

	only, err := db.FindTableBySource(ctx, src.ID, "only")
	require.NoError(t, err)
	require.NotNil(t, only)

	require.NoError(t, os.Remove(filepath.Join(lists, "only.txt")))
	reports, err = s.RunSync(ctx)
	require.NoError(t, err)
	assert.Zero(t, reports[0].TablesDeleted)
	assert.Empty(t, reports[0].Errors)

	kept, err := db.FindTableByID(ctx, only.ID)
	require.NoError(t, err)
	require.NotNil(t, kept, "the last table survives its file")
	n, err := db.CountTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRemoveSource(t *testing.T) {
	ctx := context.Background()
	db, s, lists := setup(t)

	writeList(t, filepath.Join(lists, "pets.txt"), "cat dog")
	src, err := s.AddSource(ctx, lists)
	require.NoError(t, err)
	_, err = s.RunSync(ctx)
	require.NoError(t, err)

	require.NoError(t, s.RemoveSource(ctx, src.ID))
	assert.ErrorIs(t, s.RemoveSource(ctx, src.ID), ErrSourceNotFound)

	gone, err := db.FindSourceByID(ctx, src.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	tables, err := db.GetAllTables(ctx)
	require.NoError(t, err)
	assert.Len(t, tables, 2, "imported tables outlive their source")
}
