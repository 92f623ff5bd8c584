package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bazaartrack/internal/bazaar"
)

// Service answers analytics queries over the snapshot store. It holds no
// mutable state; every query is a pure function of its inputs and the
// store's current content, so concurrent calls need no synchronization.
type Service struct {
	store bazaar.Store
}

func New(store bazaar.Store) *Service {
	return &Service{store: store}
}

// History returns one item's price series over [start, end). Empty ranges
// yield an empty series, not an error.
func (s *Service) History(ctx context.Context, itemID string, start, end time.Time, interval bazaar.Interval) ([]bazaar.PricePoint, error) {
	itemID = normalizeItemID(itemID)
	if itemID == "" {
		return nil, fmt.Errorf("%w: missing required parameter itemId", bazaar.ErrInvalidInput)
	}
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: missing required parameters startDate and endDate", bazaar.ErrInvalidInput)
	}
	if interval == "" {
		interval = bazaar.IntervalHourly
	}
	if !interval.Valid() {
		return nil, fmt.Errorf("%w: unknown interval %q", bazaar.ErrInvalidInput, interval)
	}

	points, err := s.store.RangeQuery(ctx, itemID, start, end, interval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bazaar.ErrStoreUnavailable, err)
	}
	if points == nil {
		points = []bazaar.PricePoint{}
	}
	return points, nil
}

// Latest returns the most recent snapshot of every item the store has ever
// seen, regardless of age.
func (s *Service) Latest(ctx context.Context) ([]bazaar.Snapshot, error) {
	snaps, err := s.store.LatestPerItem(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bazaar.ErrStoreUnavailable, err)
	}
	if snaps == nil {
		snaps = []bazaar.Snapshot{}
	}
	return snaps, nil
}

// Stats returns scalar price/volume aggregates for one item over a named
// period. An item with no rows in the period yields all-nil aggregates.
func (s *Service) Stats(ctx context.Context, itemID string, period bazaar.Period) (*bazaar.ItemStats, error) {
	itemID = normalizeItemID(itemID)
	if itemID == "" {
		return nil, fmt.Errorf("%w: missing required parameter itemId", bazaar.ErrInvalidInput)
	}

	stats, err := s.store.PeriodStats(ctx, itemID, period.Duration())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bazaar.ErrStoreUnavailable, err)
	}
	return stats, nil
}

func normalizeItemID(itemID string) string {
	return strings.ToUpper(strings.TrimSpace(itemID))
}
