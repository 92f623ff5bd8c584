package analytics

import (
	"context"
	"fmt"
	"sort"

	"bazaartrack/internal/bazaar"

	"github.com/montanaflynn/stats"
)

const defaultVolatilityLimit = 10

// VolatilityEntry ranks one item by how much its daily average buy price
// moved over the period.
type VolatilityEntry struct {
	ItemID          string  `json:"item_id"`
	VolatilityScore float64 `json:"volatility_score"`
	PriceRangePct   float64 `json:"price_range_pct"`
	AveragePrice    float64 `json:"average_price"`
}

// Volatility ranks items by the coefficient of variation of their daily
// average buy price over the named period. The score uses the sample
// standard deviation. Items with fewer than two daily data points are
// excluded; a single sample has no defined volatility. Results are ordered
// by score descending, ties broken by item id ascending, truncated to limit.
func (s *Service) Volatility(ctx context.Context, period bazaar.Period, limit int) ([]VolatilityEntry, error) {
	if limit <= 0 {
		limit = defaultVolatilityLimit
	}

	// Only day/week/month are meaningful here; anything else gets the
	// week default.
	switch period {
	case bazaar.PeriodDay, bazaar.PeriodWeek, bazaar.PeriodMonth:
	default:
		period = bazaar.PeriodWeek
	}

	days, err := s.store.DailyAverages(ctx, period.Duration())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bazaar.ErrStoreUnavailable, err)
	}

	// Rows arrive ordered by item id then day, so each item's prices stay
	// in chronological order.
	perItem := make(map[string][]float64)
	for _, d := range days {
		perItem[d.ItemID] = append(perItem[d.ItemID], d.AvgBuyPrice)
	}

	entries := make([]VolatilityEntry, 0, len(perItem))
	for itemID, prices := range perItem {
		if len(prices) < 2 {
			continue
		}
		entry, ok := scoreItem(itemID, prices)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].VolatilityScore != entries[j].VolatilityScore {
			return entries[i].VolatilityScore > entries[j].VolatilityScore
		}
		return entries[i].ItemID < entries[j].ItemID
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// scoreItem computes the volatility metrics for one item's daily averages.
// Items whose mean or minimum price is zero cannot be scored (both ratios
// would divide by zero) and are excluded from the ranking.
func scoreItem(itemID string, prices []float64) (VolatilityEntry, bool) {
	mean, err := stats.Mean(prices)
	if err != nil || mean == 0 {
		return VolatilityEntry{}, false
	}

	sd, err := stats.StandardDeviationSample(prices)
	if err != nil {
		return VolatilityEntry{}, false
	}

	min, err := stats.Min(prices)
	if err != nil || min == 0 {
		return VolatilityEntry{}, false
	}
	max, err := stats.Max(prices)
	if err != nil {
		return VolatilityEntry{}, false
	}

	return VolatilityEntry{
		ItemID:          itemID,
		VolatilityScore: sd / mean * 100,
		PriceRangePct:   (max - min) / min * 100,
		AveragePrice:    mean,
	}, true
}
