package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"bazaartrack/internal/bazaar"
)

// TrendPoint is one hourly bucket of the trend series. Moving averages use
// trailing windows truncated at the start of the series, so they are always
// defined. Lagged percent changes are nil until enough history exists and
// whenever the lagged value is zero.
type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	BuyPrice  float64   `json:"buy_price"`
	SellPrice float64   `json:"sell_price"`

	BuyPriceMA6   float64 `json:"buy_price_ma6"`
	SellPriceMA6  float64 `json:"sell_price_ma6"`
	BuyPriceMA24  float64 `json:"buy_price_ma24"`
	SellPriceMA24 float64 `json:"sell_price_ma24"`

	BuyPricePctChange6h   *float64 `json:"buy_price_pct_change_6h"`
	SellPricePctChange6h  *float64 `json:"sell_price_pct_change_6h"`
	BuyPricePctChange24h  *float64 `json:"buy_price_pct_change_24h"`
	SellPricePctChange24h *float64 `json:"sell_price_pct_change_24h"`
}

// TrendSummary is derived from the last bucket of the series.
type TrendSummary struct {
	ShortTerm       string  `json:"short_term"`
	PriceVolatility float64 `json:"price_volatility"`
	LatestChange24h float64 `json:"latest_change_24h"`
}

// TrendReport is the full trend answer: the per-bucket series plus the
// latest-bucket summary. Trends is nil when the series is empty.
type TrendReport struct {
	History []TrendPoint  `json:"history"`
	Trends  *TrendSummary `json:"trends"`
}

const (
	shortWindow = 6
	longWindow  = 24
)

// Trends buckets one item's prices into fixed 1-hour buckets over the named
// period and annotates each bucket with trailing moving averages and lagged
// percent changes. An empty series is a valid result with a nil summary.
func (s *Service) Trends(ctx context.Context, itemID string, period bazaar.Period) (*TrendReport, error) {
	itemID = normalizeItemID(itemID)
	if itemID == "" {
		return nil, fmt.Errorf("%w: missing required parameter itemId", bazaar.ErrInvalidInput)
	}

	end := time.Now()
	start := end.Add(-period.Duration())

	buckets, err := s.store.RangeQuery(ctx, itemID, start, end, bazaar.IntervalHourly)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bazaar.ErrStoreUnavailable, err)
	}

	history := buildTrendSeries(buckets)
	return &TrendReport{
		History: history,
		Trends:  summarize(history),
	}, nil
}

// buildTrendSeries computes the rolling statistics over the ordered bucket
// sequence. Windows look only backwards; no bucket ever sees a later one.
func buildTrendSeries(buckets []bazaar.PricePoint) []TrendPoint {
	buy := make([]float64, len(buckets))
	sell := make([]float64, len(buckets))
	for i, b := range buckets {
		buy[i] = b.BuyPrice
		sell[i] = b.SellPrice
	}

	points := make([]TrendPoint, 0, len(buckets))
	for i, b := range buckets {
		points = append(points, TrendPoint{
			Timestamp: b.Timestamp,
			BuyPrice:  b.BuyPrice,
			SellPrice: b.SellPrice,

			BuyPriceMA6:   trailingMean(buy, i, shortWindow),
			SellPriceMA6:  trailingMean(sell, i, shortWindow),
			BuyPriceMA24:  trailingMean(buy, i, longWindow),
			SellPriceMA24: trailingMean(sell, i, longWindow),

			BuyPricePctChange6h:   laggedPctChange(buy, i, shortWindow),
			SellPricePctChange6h:  laggedPctChange(sell, i, shortWindow),
			BuyPricePctChange24h:  laggedPctChange(buy, i, longWindow),
			SellPricePctChange24h: laggedPctChange(sell, i, longWindow),
		})
	}
	return points
}

// trailingMean averages values[i] and up to window-1 preceding values,
// truncating the window at the start of the series.
func trailingMean(values []float64, i, window int) float64 {
	lo := i - window + 1
	if lo < 0 {
		lo = 0
	}
	sum := 0.0
	for j := lo; j <= i; j++ {
		sum += values[j]
	}
	return sum / float64(i-lo+1)
}

// laggedPctChange returns the relative change against the value lag buckets
// earlier, in percent. It is nil when there is not enough history or the
// lagged value is zero; zero change and no-data are distinct results.
func laggedPctChange(values []float64, i, lag int) *float64 {
	j := i - lag
	if j < 0 || values[j] == 0 {
		return nil
	}
	change := (values[i] - values[j]) / values[j] * 100
	return &change
}

// summarize derives the overall direction from the last bucket. A nil
// 24-hour change is treated as 0 here, matching the summary's contract.
func summarize(history []TrendPoint) *TrendSummary {
	if len(history) == 0 {
		return nil
	}
	last := history[len(history)-1]

	shortTerm := "down"
	if last.BuyPriceMA6 > last.BuyPriceMA24 {
		shortTerm = "up"
	}

	change24h := 0.0
	if last.BuyPricePctChange24h != nil {
		change24h = *last.BuyPricePctChange24h
	}

	return &TrendSummary{
		ShortTerm:       shortTerm,
		PriceVolatility: math.Abs(change24h),
		LatestChange24h: change24h,
	}
}
