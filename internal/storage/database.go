package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/conorfennell/randpick/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// DSN builds a modernc sqlite DSN for a file path with foreign keys enforced
// on every connection.
func DSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open creates a new database connection and ensures the schema is up to date.
// On first creation a default table is seeded.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY between our own goroutines.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate(ctx context.Context) error {
	var version int
	if err := db.conn.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		var tables int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tables`).Scan(&tables); err != nil {
			return fmt.Errorf("failed to count tables: %w", err)
		}
		if tables == 0 {
			id, err := insertTable(ctx, tx, seedTableName, nil, "")
			if err != nil {
				return err
			}
			if err := insertItems(ctx, tx, id, seedItems); err != nil {
				return err
			}
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
		return nil
	})
}

// withTx runs fn in a transaction, rolling back on error.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTable(ctx context.Context, ex execer, name string, sourceID *int64, fingerprint string) (int64, error) {
	res, err := ex.ExecContext(ctx, `
		INSERT INTO tables (name, source_id, fingerprint)
		VALUES (?, ?, ?)
	`, name, nullInt64(sourceID), fingerprint)
	if err != nil {
		return 0, fmt.Errorf("failed to insert table %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for table %s: %w", name, err)
	}
	return id, nil
}

// InsertTable inserts a new table and returns its ID.
func (db *DB) InsertTable(ctx context.Context, name string) (int64, error) {
	return insertTable(ctx, db.conn, name, nil, "")
}

// InsertTableWithItems inserts a table and its items atomically.
func (db *DB) InsertTableWithItems(ctx context.Context, name string, sourceID *int64, fingerprint string, texts []string) (int64, error) {
	var id int64
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = insertTable(ctx, tx, name, sourceID, fingerprint)
		if err != nil {
			return err
		}
		return insertItems(ctx, tx, id, texts)
	})
	return id, err
}

// UpdateTableName renames a table.
func (db *DB) UpdateTableName(ctx context.Context, id int64, name string) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE tables SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename table %d: %w", id, err)
	}
	return nil
}

// DeleteTable removes a table. Its items and draws go with it.
func (db *DB) DeleteTable(ctx context.Context, id int64) error {
	_, err := db.conn.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete table %d: %w", id, err)
	}
	return nil
}

const tableColumns = `id, name, source_id, fingerprint`

func scanTable(row interface{ Scan(...any) error }) (domain.Table, error) {
	var (
		t        domain.Table
		sourceID sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.Name, &sourceID, &t.Fingerprint); err != nil {
		return domain.Table{}, err
	}
	if sourceID.Valid {
		t.SourceID = &sourceID.Int64
	}
	return t, nil
}

// GetAllTables retrieves all tables ordered by ID.
func (db *DB) GetAllTables(ctx context.Context) ([]domain.Table, error) {
	return db.queryTables(ctx, `SELECT `+tableColumns+` FROM tables ORDER BY id ASC`)
}

// GetTablesBySourceID retrieves the tables imported from a source.
func (db *DB) GetTablesBySourceID(ctx context.Context, sourceID int64) ([]domain.Table, error) {
	return db.queryTables(ctx, `SELECT `+tableColumns+` FROM tables WHERE source_id = ? ORDER BY id ASC`, sourceID)
}

func (db *DB) queryTables(ctx context.Context, query string, args ...any) ([]domain.Table, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []domain.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table row: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// FindTableByID retrieves a table by its ID. It returns nil if none exists.
func (db *DB) FindTableByID(ctx context.Context, id int64) (*domain.Table, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+tableColumns+` FROM tables WHERE id = ?`, id)
	t, err := scanTable(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Table not found
		}
		return nil, fmt.Errorf("failed to find table %d: %w", id, err)
	}
	return &t, nil
}

// FindTableBySource retrieves the table a source file was imported into.
func (db *DB) FindTableBySource(ctx context.Context, sourceID int64, name string) (*domain.Table, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+tableColumns+` FROM tables
		WHERE source_id = ? AND name = ?
		ORDER BY id ASC LIMIT 1
	`, sourceID, name)
	t, err := scanTable(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find table %s for source %d: %w", name, sourceID, err)
	}
	return &t, nil
}

// CountTables returns the number of tables.
func (db *DB) CountTables(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM tables`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tables: %w", err)
	}
	return n, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
