package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/randpick/internal/domain"
)

// ErrAlreadyDrawn is returned when an item being marked drawn was drawn
// by someone else in the meantime.
var ErrAlreadyDrawn = errors.New("item already drawn")

// TableCounts holds the item totals of a table.
type TableCounts struct {
	Total     int
	Remaining int // items not yet drawn
}

func insertItems(ctx context.Context, tx *sql.Tx, tableID int64, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO items (table_id, text) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for _, text := range texts {
		if _, err := stmt.ExecContext(ctx, tableID, text); err != nil {
			return fmt.Errorf("failed to insert item %q into table %d: %w", text, tableID, err)
		}
	}
	return nil
}

// InsertItems inserts a batch of items into a table in one transaction.
func (db *DB) InsertItems(ctx context.Context, tableID int64, texts []string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		return insertItems(ctx, tx, tableID, texts)
	})
}

// InsertItem inserts a single item and returns its ID.
func (db *DB) InsertItem(ctx context.Context, tableID int64, text string) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `INSERT INTO items (table_id, text) VALUES (?, ?)`, tableID, text)
	if err != nil {
		return 0, fmt.Errorf("failed to insert item into table %d: %w", tableID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for item: %w", err)
	}
	return id, nil
}

// UpdateItemText changes the text of an item.
func (db *DB) UpdateItemText(ctx context.Context, id int64, text string) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE items SET text = ? WHERE id = ?`, text, id)
	if err != nil {
		return fmt.Errorf("failed to update item %d: %w", id, err)
	}
	return nil
}

// DeleteItem removes a single item.
func (db *DB) DeleteItem(ctx context.Context, id int64) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	return nil
}

func deleteItems(ctx context.Context, ex execer, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := ex.ExecContext(ctx, `DELETE FROM items WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to delete %d items: %w", len(ids), err)
	}
	return nil
}

// ReplaceItems deletes stale items, inserts fresh texts and stores the new
// fingerprint of an imported table, all in one transaction.
func (db *DB) ReplaceItems(ctx context.Context, tableID int64, stale []int64, fresh []string, fingerprint string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteItems(ctx, tx, stale); err != nil {
			return err
		}
		if err := insertItems(ctx, tx, tableID, fresh); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE tables SET fingerprint = ? WHERE id = ?`, fingerprint, tableID); err != nil {
			return fmt.Errorf("failed to update fingerprint for table %d: %w", tableID, err)
		}
		return nil
	})
}

// DeleteItemsByTable removes every item of a table.
func (db *DB) DeleteItemsByTable(ctx context.Context, tableID int64) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM items WHERE table_id = ?`, tableID)
	if err != nil {
		return fmt.Errorf("failed to delete items of table %d: %w", tableID, err)
	}
	return nil
}

const itemColumns = `id, table_id, text, is_drawn, drawn_at`

func scanItem(row interface{ Scan(...any) error }) (domain.Item, error) {
	var (
		it      domain.Item
		drawnAt sql.NullInt64
	)
	if err := row.Scan(&it.ID, &it.TableID, &it.Text, &it.IsDrawn, &drawnAt); err != nil {
		return domain.Item{}, err
	}
	if drawnAt.Valid {
		ts := time.UnixMilli(drawnAt.Int64)
		it.DrawnAt = &ts
	}
	return it, nil
}

// FindItemByID retrieves an item by its ID. It returns nil if none exists.
func (db *DB) FindItemByID(ctx context.Context, id int64) (*domain.Item, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Item not found
		}
		return nil, fmt.Errorf("failed to find item %d: %w", id, err)
	}
	return &it, nil
}

// GetItemsByTable retrieves all items of a table ordered by ID.
func (db *DB) GetItemsByTable(ctx context.Context, tableID int64) ([]domain.Item, error) {
	return db.queryItems(ctx, `SELECT `+itemColumns+` FROM items WHERE table_id = ? ORDER BY id ASC`, tableID)
}

// GetUndrawnItems retrieves the items of a table that have not been drawn yet.
func (db *DB) GetUndrawnItems(ctx context.Context, tableID int64) ([]domain.Item, error) {
	return db.queryItems(ctx, `SELECT `+itemColumns+` FROM items WHERE table_id = ? AND is_drawn = 0 ORDER BY id ASC`, tableID)
}

func (db *DB) queryItems(ctx context.Context, query string, args ...any) ([]domain.Item, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountItems returns the total and undrawn number of items in a table.
func (db *DB) CountItems(ctx context.Context, tableID int64) (TableCounts, error) {
	var c TableCounts
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_drawn = 0 THEN 1 ELSE 0 END), 0)
		FROM items WHERE table_id = ?
	`, tableID).Scan(&c.Total, &c.Remaining)
	if err != nil {
		return TableCounts{}, fmt.Errorf("failed to count items of table %d: %w", tableID, err)
	}
	return c, nil
}

// MarkDrawn flags an item as drawn at ts.
func (db *DB) MarkDrawn(ctx context.Context, itemID int64, ts time.Time) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE items SET is_drawn = 1, drawn_at = ? WHERE id = ?`, ts.UnixMilli(), itemID)
	if err != nil {
		return fmt.Errorf("failed to mark item %d drawn: %w", itemID, err)
	}
	return nil
}

// ResetDrawn clears the drawn flag of every item in a table.
func (db *DB) ResetDrawn(ctx context.Context, tableID int64) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE items SET is_drawn = 0, drawn_at = NULL WHERE table_id = ?`, tableID)
	if err != nil {
		return fmt.Errorf("failed to reset drawn items of table %d: %w", tableID, err)
	}
	return nil
}

// RecordDraw marks an item drawn (when markItem is set) and appends it to the
// draw history in one transaction. Marking an item that is already drawn
// fails with ErrAlreadyDrawn and records nothing.
func (db *DB) RecordDraw(ctx context.Context, item domain.Item, ts time.Time, markItem bool) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if markItem {
			res, err := tx.ExecContext(ctx, `UPDATE items SET is_drawn = 1, drawn_at = ? WHERE id = ? AND is_drawn = 0`, ts.UnixMilli(), item.ID)
			if err != nil {
				return fmt.Errorf("failed to mark item %d drawn: %w", item.ID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to mark item %d drawn: %w", item.ID, err)
			}
			if n != 1 {
				return fmt.Errorf("item %d: %w", item.ID, ErrAlreadyDrawn)
			}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO draws (table_id, text, drawn_at)
			VALUES (?, ?, ?)
		`, item.TableID, item.Text, ts.UnixMilli()); err != nil {
			return fmt.Errorf("failed to record draw for table %d: %w", item.TableID, err)
		}
		return nil
	})
}

// GetRecentDraws returns the latest draws of a table, newest first.
func (db *DB) GetRecentDraws(ctx context.Context, tableID int64, limit int) ([]domain.Draw, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, table_id, text, drawn_at
		FROM draws WHERE table_id = ?
		ORDER BY id DESC LIMIT ?
	`, tableID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get draws for table %d: %w", tableID, err)
	}
	defer rows.Close()

	var draws []domain.Draw
	for rows.Next() {
		var (
			d  domain.Draw
			ms int64
		)
		if err := rows.Scan(&d.ID, &d.TableID, &d.Text, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan draw row for table %d: %w", tableID, err)
		}
		d.DrawnAt = time.UnixMilli(ms)
		draws = append(draws, d)
	}
	return draws, rows.Err()
}
