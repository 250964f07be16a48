package web

import (
	"time"

	"github.com/conorfennell/randpick/internal/domain"
	"github.com/conorfennell/randpick/internal/service"
	"github.com/conorfennell/randpick/internal/storage"
	"github.com/conorfennell/randpick/internal/sync"
)

type tableJSON struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SourceID  *int64 `json:"source_id,omitempty"`
	Total     int    `json:"total"`
	Remaining int    `json:"remaining"`
	IsDefault bool   `json:"is_default"`
}

func newTableJSON(t service.TableSummary) tableJSON {
	return tableJSON{
		ID:        t.ID,
		Name:      t.Name,
		SourceID:  t.SourceID,
		Total:     t.Total,
		Remaining: t.Remaining,
		IsDefault: t.IsDefault,
	}
}

type itemJSON struct {
	ID      int64      `json:"id"`
	TableID int64      `json:"table_id"`
	Text    string     `json:"text"`
	IsDrawn bool       `json:"is_drawn"`
	DrawnAt *time.Time `json:"drawn_at,omitempty"`
}

func newItemJSON(it domain.Item) itemJSON {
	return itemJSON{ID: it.ID, TableID: it.TableID, Text: it.Text, IsDrawn: it.IsDrawn, DrawnAt: it.DrawnAt}
}

type drawJSON struct {
	TableID   int64    `json:"table_id"`
	TableName string   `json:"table_name"`
	Item      itemJSON `json:"item"`
	NoRepeat  bool     `json:"no_repeat"`
	Total     int      `json:"total"`
	Remaining int      `json:"remaining"`
}

type historyJSON struct {
	Text    string    `json:"text"`
	DrawnAt time.Time `json:"drawn_at"`
}

type preferencesJSON struct {
	DefaultTableID *int64 `json:"default_table_id"`
	NoRepeat       bool   `json:"no_repeat"`
}

func newPreferencesJSON(p domain.Preferences) preferencesJSON {
	return preferencesJSON{DefaultTableID: p.DefaultTableID, NoRepeat: p.NoRepeat}
}

type sourceJSON struct {
	ID          int64      `json:"id"`
	Path        string     `json:"path"`
	Type        string     `json:"type"`
	LastScanned *time.Time `json:"last_scanned,omitempty"`
}

func newSourceJSON(s storage.Source) sourceJSON {
	out := sourceJSON{ID: s.ID, Path: s.Path, Type: s.Type}
	if s.LastScanned.Valid {
		out.LastScanned = &s.LastScanned.Time
	}
	return out
}

type syncReportJSON struct {
	SourceID      int64    `json:"source_id"`
	Path          string   `json:"path"`
	TablesCreated int      `json:"tables_created"`
	TablesUpdated int      `json:"tables_updated"`
	TablesSkipped int      `json:"tables_skipped"`
	TablesDeleted int      `json:"tables_deleted"`
	ItemsAdded    int      `json:"items_added"`
	ItemsRemoved  int      `json:"items_removed"`
	Errors        []string `json:"errors,omitempty"`
}

func newSyncReportJSON(r sync.Report) syncReportJSON {
	out := syncReportJSON{
		SourceID:      r.SourceID,
		Path:          r.Path,
		TablesCreated: r.TablesCreated,
		TablesUpdated: r.TablesUpdated,
		TablesSkipped: r.TablesSkipped,
		TablesDeleted: r.TablesDeleted,
		ItemsAdded:    r.ItemsAdded,
		ItemsRemoved:  r.ItemsRemoved,
	}
	for _, err := range r.Errors {
		out.Errors = append(out.Errors, err.Error())
	}
	return out
}
