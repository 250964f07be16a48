package service

import (
	"context"
	"fmt"

	"github.com/conorfennell/randpick/internal/domain"
	"github.com/conorfennell/randpick/internal/parser"
)

// Items lists the items of a table ordered by insertion.
func (s *Service) Items(ctx context.Context, tableID int64) ([]domain.Item, error) {
	if _, err := s.requireTable(ctx, tableID); err != nil {
		return nil, err
	}
	return s.db.GetItemsByTable(ctx, tableID)
}

// AddItems parses raw input and appends the items the table does not have yet.
// It returns the texts actually added.
func (s *Service) AddItems(ctx context.Context, tableID int64, raw string) ([]string, error) {
	parsed, err := parseItems(raw)
	if err != nil {
		return nil, err
	}
	if len(parsed) == 0 {
		return nil, ErrEmptyInput
	}
	existing, err := s.Items(ctx, tableID)
	if err != nil {
		return nil, err
	}

	have := make(map[string]struct{}, len(existing))
	for _, it := range existing {
		have[it.Text] = struct{}{}
	}
	added := make([]string, 0, len(parsed))
	for _, text := range parsed {
		if _, ok := have[text]; ok {
			continue
		}
		added = append(added, text)
	}

	if err := s.db.InsertItems(ctx, tableID, added); err != nil {
		return nil, err
	}
	return added, nil
}

func (s *Service) requireItem(ctx context.Context, id int64) (*domain.Item, error) {
	it, err := s.db.FindItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return it, nil
}

// UpdateItem changes an item's text. The drawn state is kept.
// The new text must be a single item and must not match another item of the table.
func (s *Service) UpdateItem(ctx context.Context, id int64, text string) error {
	text, err := validateText(text)
	if err != nil {
		return err
	}
	if tokens := parser.ParseInput(text); len(tokens) != 1 {
		return fmt.Errorf("%w: item text %q contains separators", ErrInvalid, text)
	}
	item, err := s.requireItem(ctx, id)
	if err != nil {
		return err
	}
	siblings, err := s.db.GetItemsByTable(ctx, item.TableID)
	if err != nil {
		return err
	}
	for _, it := range siblings {
		if it.ID != id && it.Text == text {
			return fmt.Errorf("%w: table already has item %q", ErrInvalid, text)
		}
	}
	return s.db.UpdateItemText(ctx, id, text)
}

// RemoveItem deletes a single item.
func (s *Service) RemoveItem(ctx context.Context, id int64) error {
	if _, err := s.requireItem(ctx, id); err != nil {
		return err
	}
	return s.db.DeleteItem(ctx, id)
}
