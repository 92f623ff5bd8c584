package bazaar

import (
	"context"
	"time"
)

// Store is the durable, append-only time series of price snapshots.
// The collector writes through InsertBatch; every analytics query reads
// through the remaining methods. Reads never block behind an in-flight
// insert beyond the isolation the backing store provides natively.
type Store interface {
	// InsertBatch writes all records in one transaction. Either every row
	// becomes visible to subsequent reads or none do.
	InsertBatch(ctx context.Context, records []Snapshot) error

	// RangeQuery returns the series for one item over [start, end), ordered
	// ascending. interval = raw returns stored rows as-is; hourly/daily
	// return fixed-width buckets with mean prices and summed volumes.
	RangeQuery(ctx context.Context, itemID string, start, end time.Time, interval Interval) ([]PricePoint, error)

	// LatestPerItem returns the most recent snapshot of every item ever
	// recorded, regardless of age.
	LatestPerItem(ctx context.Context) ([]Snapshot, error)

	// PeriodStats aggregates one item's rows with timestamp > now - since.
	PeriodStats(ctx context.Context, itemID string, since time.Duration) (*ItemStats, error)

	// DailyAverages returns every item's mean buy price per 1-day bucket over
	// rows with timestamp > now - since, ordered by item id then day.
	DailyAverages(ctx context.Context, since time.Duration) ([]DailyAverage, error)
}
