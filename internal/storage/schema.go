package storage

// schemaVersion is stored in PRAGMA user_version once the schema is applied.
const schemaVersion = 1

const schema = `
-- The 'sources' table tracks where imported tables come from, either a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local', -- 'local' or 'git'
    last_scanned DATETIME
);

-- The 'tables' table stores the named lists.
CREATE TABLE IF NOT EXISTS tables (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    source_id INTEGER,
    fingerprint TEXT NOT NULL DEFAULT '',

    FOREIGN KEY(source_id) REFERENCES sources(id) ON DELETE SET NULL
);

-- The 'items' table stores the entries of each list and whether they have been drawn.
CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    table_id INTEGER NOT NULL,
    text TEXT NOT NULL,
    is_drawn INTEGER NOT NULL DEFAULT 0,
    drawn_at INTEGER, -- unix milliseconds, set iff is_drawn = 1

    FOREIGN KEY(table_id) REFERENCES tables(id) ON DELETE CASCADE,
    CHECK ((is_drawn = 0 AND drawn_at IS NULL) OR (is_drawn = 1 AND drawn_at IS NOT NULL))
);
CREATE INDEX IF NOT EXISTS idx_items_table_id ON items(table_id);

-- The 'draws' table is an append-only log of picks.
CREATE TABLE IF NOT EXISTS draws (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    table_id INTEGER NOT NULL,
    text TEXT NOT NULL,
    drawn_at INTEGER NOT NULL,

    FOREIGN KEY(table_id) REFERENCES tables(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_draws_table_id ON draws(table_id);
`

// Seeded on first creation so the app is usable out of the box.
// Each item is a single token so it can be typed back in.
const seedTableName = "Default"

var seedItems = []string{"Dumplings", "Ramen", "Curry", "Barbecue", "Salad", "Tacos", "Sushi", "Pizza"}
