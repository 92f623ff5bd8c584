package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bazaartrack/internal/bazaar"
)

// Store is an in-memory bazaar.Store. It mirrors the aggregate semantics of
// the Postgres implementation and backs the package tests; it is not meant
// for production use.
type Store struct {
	mu    sync.Mutex
	rows  []bazaar.Snapshot
	fail  error
	nowFn func() time.Time
}

func NewStore() *Store {
	return &Store{nowFn: time.Now}
}

// SetNow overrides the clock used by period-relative queries.
func (m *Store) SetNow(fn func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nowFn = fn
}

// FailNextInsert makes the next InsertBatch return err without storing
// anything, then clears itself.
func (m *Store) FailNextInsert(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *Store) InsertBatch(ctx context.Context, records []bazaar.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		err := m.fail
		m.fail = nil
		return err
	}

	m.rows = append(m.rows, records...)
	return nil
}

// Rows returns a copy of every stored snapshot in insertion order.
func (m *Store) Rows() []bazaar.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]bazaar.Snapshot, len(m.rows))
	copy(out, m.rows)
	return out
}

func (m *Store) RangeQuery(ctx context.Context, itemID string, start, end time.Time, interval bazaar.Interval) ([]bazaar.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []bazaar.Snapshot
	for _, r := range m.rows {
		if r.ItemID == itemID && !r.Timestamp.Before(start) && r.Timestamp.Before(end) {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})

	if interval == bazaar.IntervalRaw {
		points := make([]bazaar.PricePoint, 0, len(matched))
		for _, r := range matched {
			points = append(points, bazaar.PricePoint{
				Timestamp:  r.Timestamp,
				BuyPrice:   r.BuyPrice,
				SellPrice:  r.SellPrice,
				BuyVolume:  r.BuyVolume,
				SellVolume: r.SellVolume,
			})
		}
		return points, nil
	}

	width := time.Hour
	if interval == bazaar.IntervalDaily {
		width = 24 * time.Hour
	}
	return bucketize(matched, width), nil
}

func bucketize(rows []bazaar.Snapshot, width time.Duration) []bazaar.PricePoint {
	type agg struct {
		buySum, sellSum float64
		buyVol, sellVol int64
		count           int
	}

	buckets := make(map[time.Time]*agg)
	var order []time.Time
	for _, r := range rows {
		key := r.Timestamp.UTC().Truncate(width)
		a, ok := buckets[key]
		if !ok {
			a = &agg{}
			buckets[key] = a
			order = append(order, key)
		}
		a.buySum += r.BuyPrice
		a.sellSum += r.SellPrice
		a.buyVol += r.BuyVolume
		a.sellVol += r.SellVolume
		a.count++
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	points := make([]bazaar.PricePoint, 0, len(order))
	for _, key := range order {
		a := buckets[key]
		points = append(points, bazaar.PricePoint{
			Timestamp:  key,
			BuyPrice:   a.buySum / float64(a.count),
			SellPrice:  a.sellSum / float64(a.count),
			BuyVolume:  a.buyVol,
			SellVolume: a.sellVol,
		})
	}
	return points
}

func (m *Store) LatestPerItem(ctx context.Context) ([]bazaar.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	latest := make(map[string]bazaar.Snapshot)
	for _, r := range m.rows {
		cur, ok := latest[r.ItemID]
		if !ok || r.Timestamp.After(cur.Timestamp) {
			latest[r.ItemID] = r
		}
	}

	ids := make([]string, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]bazaar.Snapshot, 0, len(ids))
	for _, id := range ids {
		out = append(out, latest[id])
	}
	return out, nil
}

func (m *Store) PeriodStats(ctx context.Context, itemID string, since time.Duration) (*bazaar.ItemStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.nowFn().Add(-since)

	stats := &bazaar.ItemStats{}
	var (
		count           int
		buySum, sellSum float64
		buyVol, sellVol int64
	)
	for _, r := range m.rows {
		if r.ItemID != itemID || !r.Timestamp.After(cutoff) {
			continue
		}
		if count == 0 {
			stats.MinBuyPrice = ptr(r.BuyPrice)
			stats.MaxBuyPrice = ptr(r.BuyPrice)
			stats.MinSellPrice = ptr(r.SellPrice)
			stats.MaxSellPrice = ptr(r.SellPrice)
		} else {
			if r.BuyPrice < *stats.MinBuyPrice {
				stats.MinBuyPrice = ptr(r.BuyPrice)
			}
			if r.BuyPrice > *stats.MaxBuyPrice {
				stats.MaxBuyPrice = ptr(r.BuyPrice)
			}
			if r.SellPrice < *stats.MinSellPrice {
				stats.MinSellPrice = ptr(r.SellPrice)
			}
			if r.SellPrice > *stats.MaxSellPrice {
				stats.MaxSellPrice = ptr(r.SellPrice)
			}
		}
		buySum += r.BuyPrice
		sellSum += r.SellPrice
		buyVol += r.BuyVolume
		sellVol += r.SellVolume
		count++
	}

	if count > 0 {
		stats.AvgBuyPrice = ptr(buySum / float64(count))
		stats.AvgSellPrice = ptr(sellSum / float64(count))
		stats.TotalBuyVolume = &buyVol
		stats.TotalSellVolume = &sellVol
	}
	return stats, nil
}

func (m *Store) DailyAverages(ctx context.Context, since time.Duration) ([]bazaar.DailyAverage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.nowFn().Add(-since)

	type agg struct {
		sum   float64
		count int
	}
	type key struct {
		itemID string
		day    time.Time
	}

	days := make(map[key]*agg)
	for _, r := range m.rows {
		if !r.Timestamp.After(cutoff) {
			continue
		}
		k := key{itemID: r.ItemID, day: r.Timestamp.UTC().Truncate(24 * time.Hour)}
		a, ok := days[k]
		if !ok {
			a = &agg{}
			days[k] = a
		}
		a.sum += r.BuyPrice
		a.count++
	}

	keys := make([]key, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].itemID != keys[j].itemID {
			return keys[i].itemID < keys[j].itemID
		}
		return keys[i].day.Before(keys[j].day)
	})

	out := make([]bazaar.DailyAverage, 0, len(keys))
	for _, k := range keys {
		a := days[k]
		out = append(out, bazaar.DailyAverage{
			ItemID:      k.itemID,
			Day:         k.day,
			AvgBuyPrice: a.sum / float64(a.count),
		})
	}
	return out, nil
}

func ptr(v float64) *float64 { return &v }
