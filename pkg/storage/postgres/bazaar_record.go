package postgres

import (
	"time"

	"bazaartrack/internal/bazaar"
)

// BazaarRecord is one stored price snapshot. The table is append-only; rows
// are never updated or deleted by the application.
type BazaarRecord struct {
	ID uint `gorm:"primaryKey"`

	ItemID    string    `gorm:"type:text;not null;index:idx_bazaar_item;index:idx_bazaar_item_ts"`
	Timestamp time.Time `gorm:"not null;index:idx_bazaar_ts;index:idx_bazaar_item_ts"`

	SellPrice float64 `gorm:"type:numeric;not null"`
	BuyPrice  float64 `gorm:"type:numeric;not null"`

	SellVolume int64 `gorm:"not null"`
	BuyVolume  int64 `gorm:"not null"`

	SellMovingWeek int64 `gorm:"not null"`
	BuyMovingWeek  int64 `gorm:"not null"`
}

// TableName overrides the default table name for GORM.
func (BazaarRecord) TableName() string {
	return "bazaar_records"
}

func toRecord(s bazaar.Snapshot) BazaarRecord {
	return BazaarRecord{
		ItemID:         s.ItemID,
		Timestamp:      s.Timestamp,
		SellPrice:      s.SellPrice,
		BuyPrice:       s.BuyPrice,
		SellVolume:     s.SellVolume,
		BuyVolume:      s.BuyVolume,
		SellMovingWeek: s.SellMovingWeek,
		BuyMovingWeek:  s.BuyMovingWeek,
	}
}

func toSnapshot(r BazaarRecord) bazaar.Snapshot {
	return bazaar.Snapshot{
		ItemID:         r.ItemID,
		Timestamp:      r.Timestamp,
		SellPrice:      r.SellPrice,
		BuyPrice:       r.BuyPrice,
		SellVolume:     r.SellVolume,
		BuyVolume:      r.BuyVolume,
		SellMovingWeek: r.SellMovingWeek,
		BuyMovingWeek:  r.BuyMovingWeek,
	}
}
