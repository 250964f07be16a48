package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/conorfennell/randpick/internal/domain"
	"github.com/conorfennell/randpick/internal/storage"
)

// drawAttempts bounds retries when another process marks the picked item first.
const drawAttempts = 3

// Draw picks a random item from a table (see ResolveTable for tableID == 0).
//
// In no-repeat mode only undrawn items are candidates and the picked item is
// flagged drawn. Otherwise every item is a candidate and flags are untouched.
// Every successful draw is appended to the history. Draws are serialized so
// concurrent callers never receive the same item in no-repeat mode.
func (s *Service) Draw(ctx context.Context, tableID int64) (DrawResult, error) {
	s.drawMu.Lock()
	defer s.drawMu.Unlock()

	table, err := s.ResolveTable(ctx, tableID)
	if err != nil {
		return DrawResult{}, err
	}
	noRepeat, err := s.prefs.NoRepeat()
	if err != nil {
		return DrawResult{}, err
	}

	var picked domain.Item
	now := s.now()
	for attempt := 1; ; attempt++ {
		items, err := s.db.GetItemsByTable(ctx, table.ID)
		if err != nil {
			return DrawResult{}, err
		}
		picked, err = s.picker.Pick(items, noRepeat)
		if err != nil {
			return DrawResult{}, err
		}
		err = s.db.RecordDraw(ctx, picked, now, noRepeat)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrAlreadyDrawn) || attempt == drawAttempts {
			return DrawResult{}, err
		}
		slog.Debug("Picked item was drawn concurrently, retrying", "table", table.ID, "item", picked.ID)
	}
	if noRepeat {
		picked.IsDrawn = true
		picked.DrawnAt = &now
	}

	counts, err := s.db.CountItems(ctx, table.ID)
	if err != nil {
		return DrawResult{}, err
	}
	slog.Debug("Item drawn", "table", table.ID, "item", picked.ID, "no_repeat", noRepeat, "remaining", counts.Remaining)

	return DrawResult{
		Table:     table,
		Item:      picked,
		NoRepeat:  noRepeat,
		Total:     counts.Total,
		Remaining: counts.Remaining,
	}, nil
}

// Reset marks every item of a table undrawn and returns the table reset.
func (s *Service) Reset(ctx context.Context, tableID int64) (domain.Table, error) {
	table, err := s.ResolveTable(ctx, tableID)
	if err != nil {
		return domain.Table{}, err
	}
	if err := s.db.ResetDrawn(ctx, table.ID); err != nil {
		return domain.Table{}, err
	}
	slog.Info("Table reset", "id", table.ID)
	return table, nil
}

// History returns the latest draws of a table, newest first.
func (s *Service) History(ctx context.Context, tableID int64, limit int) (domain.Table, []domain.Draw, error) {
	table, err := s.ResolveTable(ctx, tableID)
	if err != nil {
		return domain.Table{}, nil, err
	}
	draws, err := s.db.GetRecentDraws(ctx, table.ID, limit)
	if err != nil {
		return domain.Table{}, nil, err
	}
	return table, draws, nil
}
