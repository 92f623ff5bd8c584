package bazaar

import "time"

// Snapshot is one observation of one bazaar item at one instant.
// Rows are append-only: a snapshot is never updated or deleted once written.
type Snapshot struct {
	ItemID    string    `json:"item_id"`
	Timestamp time.Time `json:"timestamp"`

	SellPrice float64 `json:"sell_price"`
	BuyPrice  float64 `json:"buy_price"`

	SellVolume int64 `json:"sell_volume"`
	BuyVolume  int64 `json:"buy_volume"`

	// Cumulative weekly volume hints reported by the feed.
	SellMovingWeek int64 `json:"sell_moving_week"`
	BuyMovingWeek  int64 `json:"buy_moving_week"`
}

// Interval selects the bucketing of a history query.
type Interval string

const (
	IntervalRaw    Interval = "raw"
	IntervalHourly Interval = "hourly"
	IntervalDaily  Interval = "daily"
)

// Valid reports whether the interval is one the store understands.
func (i Interval) Valid() bool {
	switch i {
	case IntervalRaw, IntervalHourly, IntervalDaily:
		return true
	}
	return false
}

// PricePoint is one row of a history series. For raw queries it is a single
// stored snapshot; for hourly/daily queries it is one bucket with prices
// averaged and volumes summed over the contributing rows.
type PricePoint struct {
	Timestamp  time.Time `json:"timestamp"`
	BuyPrice   float64   `json:"buy_price"`
	SellPrice  float64   `json:"sell_price"`
	BuyVolume  int64     `json:"buy_volume"`
	SellVolume int64     `json:"sell_volume"`
}

// ItemStats holds scalar aggregates over one item's rows in a period.
// All fields are nil when the item has no rows in the period; that is a
// valid result, not an error.
type ItemStats struct {
	MinBuyPrice  *float64 `json:"min_buy_price"`
	MaxBuyPrice  *float64 `json:"max_buy_price"`
	AvgBuyPrice  *float64 `json:"avg_buy_price"`
	MinSellPrice *float64 `json:"min_sell_price"`
	MaxSellPrice *float64 `json:"max_sell_price"`
	AvgSellPrice *float64 `json:"avg_sell_price"`

	TotalBuyVolume  *int64 `json:"total_buy_volume"`
	TotalSellVolume *int64 `json:"total_sell_volume"`
}

// DailyAverage is one item's mean buy price over one 1-day bucket.
// It is the raw input of the volatility ranking.
type DailyAverage struct {
	ItemID      string    `json:"item_id"`
	Day         time.Time `json:"day"`
	AvgBuyPrice float64   `json:"avg_buy_price"`
}

// Period is a named lookback window for stats/trends/volatility queries.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Duration maps a named period to its fixed lookback duration. Unrecognized
// values fall back to a week, matching the default of every query that takes
// a period.
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodDay:
		return 24 * time.Hour
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	case PeriodYear:
		return 365 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}
