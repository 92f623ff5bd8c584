package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"bazaartrack/internal/bazaar"
	"bazaartrack/pkg/storage/memory"
)

func seed(t *testing.T, store *memory.Store, rows []bazaar.Snapshot) {
	t.Helper()
	if err := store.InsertBatch(context.Background(), rows); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

// go test -v --run TestHistoryValidation
func TestHistoryValidation(t *testing.T) {
	svc := New(memory.NewStore())
	ctx := context.Background()
	now := time.Now()

	_, err := svc.History(ctx, "", now.Add(-time.Hour), now, bazaar.IntervalRaw)
	if !errors.Is(err, bazaar.ErrInvalidInput) {
		t.Errorf("missing itemId: expected ErrInvalidInput, got %v", err)
	}

	_, err = svc.History(ctx, "ITEM_A", time.Time{}, now, bazaar.IntervalRaw)
	if !errors.Is(err, bazaar.ErrInvalidInput) {
		t.Errorf("missing start: expected ErrInvalidInput, got %v", err)
	}

	_, err = svc.History(ctx, "ITEM_A", now.Add(-time.Hour), now, "weekly")
	if !errors.Is(err, bazaar.ErrInvalidInput) {
		t.Errorf("bad interval: expected ErrInvalidInput, got %v", err)
	}
}

// go test -v --run TestHistoryRawPreservesOrder
func TestHistoryRawPreservesOrder(t *testing.T) {
	store := memory.NewStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var rows []bazaar.Snapshot
	for i := 0; i < 5; i++ {
		rows = append(rows, bazaar.Snapshot{
			ItemID:    "ITEM_A",
			Timestamp: base.Add(time.Duration(i) * 5 * time.Minute),
			BuyPrice:  float64(100 + i),
			SellPrice: float64(90 + i),
		})
	}
	seed(t, store, rows)

	svc := New(store)
	points, err := svc.History(context.Background(), "ITEM_A", base, base.Add(time.Hour), bazaar.IntervalRaw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != len(rows) {
		t.Fatalf("raw history must preserve row count: want %d got %d", len(rows), len(points))
	}
	for i, p := range points {
		if !p.Timestamp.Equal(rows[i].Timestamp) || p.BuyPrice != rows[i].BuyPrice {
			t.Errorf("row %d out of order or mutated: %+v", i, p)
		}
		if i > 0 && points[i].Timestamp.Before(points[i-1].Timestamp) {
			t.Errorf("timestamps not ascending at %d", i)
		}
	}
}

// go test -v --run TestHistoryHourlyBucketMean
func TestHistoryHourlyBucketMean(t *testing.T) {
	store := memory.NewStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Three rows in one hour bucket, one in the next.
	seed(t, store, []bazaar.Snapshot{
		{ItemID: "ITEM_A", Timestamp: base.Add(5 * time.Minute), BuyPrice: 100, SellPrice: 80, BuyVolume: 1, SellVolume: 2},
		{ItemID: "ITEM_A", Timestamp: base.Add(20 * time.Minute), BuyPrice: 110, SellPrice: 90, BuyVolume: 3, SellVolume: 4},
		{ItemID: "ITEM_A", Timestamp: base.Add(40 * time.Minute), BuyPrice: 120, SellPrice: 100, BuyVolume: 5, SellVolume: 6},
		{ItemID: "ITEM_A", Timestamp: base.Add(70 * time.Minute), BuyPrice: 200, SellPrice: 180, BuyVolume: 7, SellVolume: 8},
	})

	svc := New(store)
	points, err := svc.History(context.Background(), "ITEM_A", base, base.Add(2*time.Hour), bazaar.IntervalHourly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 hourly buckets, got %d", len(points))
	}

	first := points[0]
	if first.BuyPrice != (100+110+120)/3.0 {
		t.Errorf("bucket buy price must be the arithmetic mean, got %f", first.BuyPrice)
	}
	if first.SellPrice != (80+90+100)/3.0 {
		t.Errorf("bucket sell price must be the arithmetic mean, got %f", first.SellPrice)
	}
	if first.BuyVolume != 9 || first.SellVolume != 12 {
		t.Errorf("bucket volumes must be summed, got %+v", first)
	}
	if points[1].BuyPrice != 200 {
		t.Errorf("second bucket should hold the lone row, got %+v", points[1])
	}
}

// go test -v --run TestHistoryEmptyRange
func TestHistoryEmptyRange(t *testing.T) {
	svc := New(memory.NewStore())
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	points, err := svc.History(context.Background(), "ITEM_A", start, start.Add(time.Hour), bazaar.IntervalRaw)
	if err != nil {
		t.Fatalf("empty range must not be an error: %v", err)
	}
	if points == nil || len(points) != 0 {
		t.Fatalf("expected empty non-nil series, got %v", points)
	}
}

// go test -v --run TestLatestPerItem
func TestLatestPerItem(t *testing.T) {
	store := memory.NewStore()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	seed(t, store, []bazaar.Snapshot{
		{ItemID: "ITEM_A", Timestamp: base, BuyPrice: 1},
		{ItemID: "ITEM_A", Timestamp: base.Add(time.Hour), BuyPrice: 2},
		{ItemID: "ITEM_B", Timestamp: base, BuyPrice: 3},
	})

	svc := New(store)
	snaps, err := svc.Latest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected one snapshot per item, got %d", len(snaps))
	}
	if snaps[0].ItemID != "ITEM_A" || snaps[0].BuyPrice != 2 {
		t.Errorf("expected newest ITEM_A row, got %+v", snaps[0])
	}
	if snaps[1].ItemID != "ITEM_B" || snaps[1].BuyPrice != 3 {
		t.Errorf("expected ITEM_B row, got %+v", snaps[1])
	}
}

// go test -v --run TestStats
func TestStats(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	store.SetNow(func() time.Time { return now })

	seed(t, store, []bazaar.Snapshot{
		{ItemID: "ITEM_A", Timestamp: now.Add(-48 * time.Hour), BuyPrice: 100, SellPrice: 80, BuyVolume: 10, SellVolume: 20},
		{ItemID: "ITEM_A", Timestamp: now.Add(-24 * time.Hour), BuyPrice: 200, SellPrice: 160, BuyVolume: 30, SellVolume: 40},
		// Outside the week window.
		{ItemID: "ITEM_A", Timestamp: now.Add(-10 * 24 * time.Hour), BuyPrice: 999, SellPrice: 999, BuyVolume: 999, SellVolume: 999},
	})

	svc := New(store)
	stats, err := svc.Stats(context.Background(), "ITEM_A", bazaar.PeriodWeek)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.MinBuyPrice == nil || *stats.MinBuyPrice != 100 {
		t.Errorf("unexpected min buy price: %v", stats.MinBuyPrice)
	}
	if stats.MaxBuyPrice == nil || *stats.MaxBuyPrice != 200 {
		t.Errorf("unexpected max buy price: %v", stats.MaxBuyPrice)
	}
	if stats.AvgBuyPrice == nil || *stats.AvgBuyPrice != 150 {
		t.Errorf("unexpected avg buy price: %v", stats.AvgBuyPrice)
	}
	if stats.TotalBuyVolume == nil || *stats.TotalBuyVolume != 40 {
		t.Errorf("unexpected total buy volume: %v", stats.TotalBuyVolume)
	}
	if stats.TotalSellVolume == nil || *stats.TotalSellVolume != 60 {
		t.Errorf("unexpected total sell volume: %v", stats.TotalSellVolume)
	}
}

// go test -v --run TestStatsEmptyPeriod
func TestStatsEmptyPeriod(t *testing.T) {
	svc := New(memory.NewStore())

	stats, err := svc.Stats(context.Background(), "ITEM_A", bazaar.PeriodDay)
	if err != nil {
		t.Fatalf("empty period must not be an error: %v", err)
	}
	if stats.MinBuyPrice != nil || stats.AvgSellPrice != nil || stats.TotalBuyVolume != nil {
		t.Errorf("expected all-nil aggregates, got %+v", stats)
	}
}

// go test -v --run TestHistoryRoundTrip
func TestHistoryRoundTrip(t *testing.T) {
	store := memory.NewStore()
	runTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	batch := []bazaar.Snapshot{
		{ItemID: "ITEM_A", Timestamp: runTime, BuyPrice: 9, SellPrice: 10, BuyVolume: 3, SellVolume: 5},
		{ItemID: "ITEM_B", Timestamp: runTime, BuyPrice: 42, SellPrice: 43},
	}
	seed(t, store, batch)

	svc := New(store)
	points, err := svc.History(context.Background(), "ITEM_A", runTime.Add(-time.Second), runTime.Add(time.Second), bazaar.IntervalRaw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected exactly the ITEM_A row just written, got %d rows", len(points))
	}
	if points[0].BuyPrice != 9 || points[0].SellPrice != 10 {
		t.Errorf("round-tripped row mutated: %+v", points[0])
	}
}
