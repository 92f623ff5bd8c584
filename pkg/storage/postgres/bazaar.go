package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bazaartrack/internal/bazaar"
)

// InsertBatch writes all records inside one transaction. A failure rolls the
// whole batch back; readers never observe a partial batch.
func (p *PostgresClient) InsertBatch(ctx context.Context, records []bazaar.Snapshot) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]BazaarRecord, 0, len(records))
	for _, s := range records {
		rows = append(rows, toRecord(s))
	}

	if err := p.DB.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert batch of %d records: %w", len(rows), err)
	}
	return nil
}

// RangeQuery returns one item's series over [start, end), ascending. Raw
// returns stored rows unchanged; hourly/daily group rows into date_trunc
// buckets with mean prices and summed volumes.
func (p *PostgresClient) RangeQuery(ctx context.Context, itemID string, start, end time.Time, interval bazaar.Interval) ([]bazaar.PricePoint, error) {
	if interval == bazaar.IntervalRaw {
		var recs []BazaarRecord
		err := p.DB.WithContext(ctx).
			Where("item_id = ? AND timestamp >= ? AND timestamp < ?", itemID, start, end).
			Order("timestamp ASC").
			Find(&recs).Error
		if err != nil {
			return nil, fmt.Errorf("range query failed: %w", err)
		}

		points := make([]bazaar.PricePoint, 0, len(recs))
		for _, r := range recs {
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

	unit := "hour"
	if interval == bazaar.IntervalDaily {
		unit = "day"
	}

	// unit is one of two fixed literals, never caller input.
	query := fmt.Sprintf(`
		SELECT
			date_trunc('%s', timestamp) AS timestamp,
			AVG(buy_price) AS buy_price,
			AVG(sell_price) AS sell_price,
			SUM(buy_volume) AS buy_volume,
			SUM(sell_volume) AS sell_volume
		FROM bazaar_records
		WHERE item_id = ? AND timestamp >= ? AND timestamp < ?
		GROUP BY 1
		ORDER BY 1 ASC`, unit)

	var points []bazaar.PricePoint
	if err := p.DB.WithContext(ctx).Raw(query, itemID, start, end).Scan(&points).Error; err != nil {
		return nil, fmt.Errorf("bucketed range query failed: %w", err)
	}
	return points, nil
}

// LatestPerItem returns the newest snapshot of every distinct item ever
// recorded, regardless of age.
func (p *PostgresClient) LatestPerItem(ctx context.Context) ([]bazaar.Snapshot, error) {
	var recs []BazaarRecord
	err := p.DB.WithContext(ctx).
		Raw(`
			SELECT DISTINCT ON (item_id) *
			FROM bazaar_records
			ORDER BY item_id ASC, timestamp DESC`).
		Scan(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("latest per item query failed: %w", err)
	}

	snaps := make([]bazaar.Snapshot, 0, len(recs))
	for _, r := range recs {
		snaps = append(snaps, toSnapshot(r))
	}
	return snaps, nil
}

type periodStatsRow struct {
	MinBuyPrice     sql.NullFloat64
	MaxBuyPrice     sql.NullFloat64
	AvgBuyPrice     sql.NullFloat64
	MinSellPrice    sql.NullFloat64
	MaxSellPrice    sql.NullFloat64
	AvgSellPrice    sql.NullFloat64
	TotalBuyVolume  sql.NullInt64
	TotalSellVolume sql.NullInt64
}

// PeriodStats aggregates one item's rows newer than now - since. Every field
// is NULL when no rows match; that maps to nil pointers, not an error.
func (p *PostgresClient) PeriodStats(ctx context.Context, itemID string, since time.Duration) (*bazaar.ItemStats, error) {
	cutoff := time.Now().Add(-since)

	var row periodStatsRow
	err := p.DB.WithContext(ctx).
		Raw(`
			SELECT
				MIN(buy_price) AS min_buy_price,
				MAX(buy_price) AS max_buy_price,
				AVG(buy_price) AS avg_buy_price,
				MIN(sell_price) AS min_sell_price,
				MAX(sell_price) AS max_sell_price,
				AVG(sell_price) AS avg_sell_price,
				SUM(buy_volume) AS total_buy_volume,
				SUM(sell_volume) AS total_sell_volume
			FROM bazaar_records
			WHERE item_id = ? AND timestamp > ?`, itemID, cutoff).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("period stats query failed: %w", err)
	}

	stats := &bazaar.ItemStats{}
	if row.MinBuyPrice.Valid {
		stats.MinBuyPrice = &row.MinBuyPrice.Float64
		stats.MaxBuyPrice = &row.MaxBuyPrice.Float64
		stats.AvgBuyPrice = &row.AvgBuyPrice.Float64
		stats.MinSellPrice = &row.MinSellPrice.Float64
		stats.MaxSellPrice = &row.MaxSellPrice.Float64
		stats.AvgSellPrice = &row.AvgSellPrice.Float64
		stats.TotalBuyVolume = &row.TotalBuyVolume.Int64
		stats.TotalSellVolume = &row.TotalSellVolume.Int64
	}
	return stats, nil
}

// DailyAverages returns each item's mean buy price per 1-day bucket over rows
// newer than now - since, ordered by item id then day.
func (p *PostgresClient) DailyAverages(ctx context.Context, since time.Duration) ([]bazaar.DailyAverage, error) {
	cutoff := time.Now().Add(-since)

	var rows []bazaar.DailyAverage
	err := p.DB.WithContext(ctx).
		Raw(`
			SELECT
				item_id,
				date_trunc('day', timestamp) AS day,
				AVG(buy_price) AS avg_buy_price
			FROM bazaar_records
			WHERE timestamp > ?
			GROUP BY item_id, date_trunc('day', timestamp)
			ORDER BY item_id ASC, day ASC`, cutoff).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("daily averages query failed: %w", err)
	}
	return rows, nil
}
