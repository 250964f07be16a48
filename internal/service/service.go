package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/randpick/internal/domain"
	"github.com/conorfennell/randpick/internal/parser"
	"github.com/conorfennell/randpick/internal/picker"
	"github.com/conorfennell/randpick/internal/prefs"
	"github.com/conorfennell/randpick/internal/storage"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrInvalid    = errors.New("invalid input")
	ErrLastTable  = errors.New("cannot delete the last table")
	ErrNoTables   = errors.New("no tables exist")
	ErrEmptyInput = errors.New("no items in input")
)

// Service implements table management and drawing on top of the stores.
type Service struct {
	db     *storage.DB
	prefs  *prefs.Store
	picker *picker.Picker
	now    func() time.Time

	drawMu sync.Mutex // serializes resolve, pick and record in Draw
}

// Option customizes a Service.
type Option func(*Service)

// WithPicker replaces the random picker, mainly for deterministic tests.
func WithPicker(p *picker.Picker) Option {
	return func(s *Service) { s.picker = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service.
func New(db *storage.DB, ps *prefs.Store, opts ...Option) *Service {
	s := &Service{
		db:     db,
		prefs:  ps,
		picker: picker.New(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TableSummary is a table with its item counts.
type TableSummary struct {
	domain.Table
	Total     int
	Remaining int
	IsDefault bool
}

// DrawResult is the outcome of a successful draw.
type DrawResult struct {
	Table     domain.Table
	Item      domain.Item
	NoRepeat  bool
	Total     int
	Remaining int
}

type nameInput struct {
	Name string `validate:"required,max=100"`
}

type textInput struct {
	Text string `validate:"required,max=500"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateName(name string) (string, error) {
	in := nameInput{Name: strings.TrimSpace(name)}
	if err := validate.Struct(in); err != nil {
		return "", fmt.Errorf("%w: table name: %v", ErrInvalid, err)
	}
	return in.Name, nil
}

func validateText(text string) (string, error) {
	in := textInput{Text: strings.TrimSpace(text)}
	if err := validate.Struct(in); err != nil {
		return "", fmt.Errorf("%w: item text: %v", ErrInvalid, err)
	}
	return in.Text, nil
}

// parseItems splits raw input and validates every resulting item.
func parseItems(raw string) ([]string, error) {
	items := parser.ParseInput(raw)
	for _, text := range items {
		if _, err := validateText(text); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *Service) requireTable(ctx context.Context, id int64) (*domain.Table, error) {
	t, err := s.db.FindTableByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("table %d: %w", id, ErrNotFound)
	}
	return t, nil
}

// ListTables returns every table with its counts.
func (s *Service) ListTables(ctx context.Context) ([]TableSummary, error) {
	tables, err := s.db.GetAllTables(ctx)
	if err != nil {
		return nil, err
	}
	def, err := s.prefs.DefaultTableID()
	if err != nil {
		return nil, err
	}

	out := make([]TableSummary, 0, len(tables))
	for _, t := range tables {
		c, err := s.db.CountItems(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, TableSummary{
			Table:     t,
			Total:     c.Total,
			Remaining: c.Remaining,
			IsDefault: def != nil && *def == t.ID,
		})
	}
	return out, nil
}

// CreateTable creates a table and fills it from free-text input.
// Empty input creates an empty table.
func (s *Service) CreateTable(ctx context.Context, name, rawItems string) (domain.Table, error) {
	name, err := validateName(name)
	if err != nil {
		return domain.Table{}, err
	}
	items, err := parseItems(rawItems)
	if err != nil {
		return domain.Table{}, err
	}
	id, err := s.db.InsertTableWithItems(ctx, name, nil, "", items)
	if err != nil {
		return domain.Table{}, err
	}
	slog.Info("Table created", "id", id, "name", name, "items", len(items))
	return domain.Table{ID: id, Name: name}, nil
}

// RenameTable changes a table's name.
func (s *Service) RenameTable(ctx context.Context, id int64, name string) error {
	name, err := validateName(name)
	if err != nil {
		return err
	}
	if _, err := s.requireTable(ctx, id); err != nil {
		return err
	}
	return s.db.UpdateTableName(ctx, id, name)
}

// DeleteTable removes a table with its items. The last table cannot be deleted.
// A default preference pointing at the table is cleared.
func (s *Service) DeleteTable(ctx context.Context, id int64) error {
	if _, err := s.requireTable(ctx, id); err != nil {
		return err
	}
	n, err := s.db.CountTables(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastTable
	}
	if err := s.db.DeleteTable(ctx, id); err != nil {
		return err
	}

	def, err := s.prefs.DefaultTableID()
	if err != nil {
		return err
	}
	if def != nil && *def == id {
		if err := s.prefs.ClearDefaultTableID(); err != nil {
			return err
		}
	}
	slog.Info("Table deleted", "id", id)
	return nil
}

// SetDefaultTable makes id the table drawn from when none is given.
func (s *Service) SetDefaultTable(ctx context.Context, id int64) error {
	if _, err := s.requireTable(ctx, id); err != nil {
		return err
	}
	return s.prefs.SetDefaultTableID(id)
}

// ClearDefaultTable removes the default table preference.
func (s *Service) ClearDefaultTable() error {
	return s.prefs.ClearDefaultTableID()
}

// SetNoRepeat toggles no-repeat mode.
func (s *Service) SetNoRepeat(enabled bool) error {
	return s.prefs.SetNoRepeat(enabled)
}

// Preferences returns the current preferences.
func (s *Service) Preferences() (domain.Preferences, error) {
	return s.prefs.Snapshot()
}

// ResolveTable picks the table an operation applies to: id when non-zero,
// else the default preference, else the first table. A default pointing at
// a deleted table is cleared.
func (s *Service) ResolveTable(ctx context.Context, id int64) (domain.Table, error) {
	if id != 0 {
		t, err := s.requireTable(ctx, id)
		if err != nil {
			return domain.Table{}, err
		}
		return *t, nil
	}

	def, err := s.prefs.DefaultTableID()
	if err != nil {
		return domain.Table{}, err
	}
	if def != nil {
		t, err := s.db.FindTableByID(ctx, *def)
		if err != nil {
			return domain.Table{}, err
		}
		if t != nil {
			return *t, nil
		}
		slog.Warn("Default table no longer exists, clearing", "id", *def)
		if err := s.prefs.ClearDefaultTableID(); err != nil {
			return domain.Table{}, err
		}
	}

	tables, err := s.db.GetAllTables(ctx)
	if err != nil {
		return domain.Table{}, err
	}
	if len(tables) == 0 {
		return domain.Table{}, ErrNoTables
	}
	return tables[0], nil
}
