package domain

import "time"

// Table is a named, user-defined list of choices.
type Table struct {
	ID          int64
	Name        string
	SourceID    *int64 // set when the table was imported from a source
	Fingerprint string // hash of the imported item list, empty for manual tables
}

// Item is one entry within a Table.
// DrawnAt is non-nil exactly when IsDrawn is true.
type Item struct {
	ID      int64
	TableID int64
	Text    string
	IsDrawn bool
	DrawnAt *time.Time
}

// Draw records a single successful pick.
type Draw struct {
	ID      int64
	TableID int64
	Text    string
	DrawnAt time.Time
}

// Preferences holds the user's key-value settings.
type Preferences struct {
	DefaultTableID *int64
	NoRepeat       bool
}
