package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"bazaartrack/internal/bazaar"
	"bazaartrack/pkg/hypixel"

	"go.uber.org/zap"
)

// Feed is the external price feed the collector polls on every tick.
type Feed interface {
	GetBazaarProducts(ctx context.Context) (map[string]hypixel.Product, error)
}

// RunReport summarizes one collection run. It exists for logging and the
// live broadcast only; nothing about it is persisted.
type RunReport struct {
	StartedAt     time.Time
	Skipped       bool
	ItemsFetched  int
	ItemsAccepted int
	ItemsRejected int
}

// Collector polls the feed on a fixed interval and writes one batch of
// snapshots per run. At most one run is in flight at any time; a tick that
// fires during a run is skipped, never queued.
type Collector struct {
	feed         Feed
	store        bazaar.Store
	logger       *zap.Logger
	interval     time.Duration
	fetchTimeout time.Duration

	running atomic.Bool
	now     func() time.Time
	publish func([]bazaar.Snapshot)
}

func New(feed Feed, store bazaar.Store, logger *zap.Logger, interval, fetchTimeout time.Duration) *Collector {
	return &Collector{
		feed:         feed,
		store:        store,
		logger:       logger,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		now:          time.Now,
	}
}

// SetPublisher registers a hook that receives the accepted batch after each
// successful run.
func (c *Collector) SetPublisher(fn func([]bazaar.Snapshot)) {
	c.publish = fn
}

// SetNow overrides the run clock.
func (c *Collector) SetNow(fn func() time.Time) {
	c.now = fn
}

// Start launches the tick loop. It returns immediately; the loop stops when
// ctx is cancelled. Each tick runs in its own goroutine so a slow run never
// stalls the ticker, and the single-flight guard turns overlapping ticks
// into skips.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.logger.Info("collector stopped", zap.Error(ctx.Err()))
				return
			case <-ticker.C:
				// Errors are logged inside RunOnce; the next scheduled tick
				// is the retry.
				go func() { _, _ = c.RunOnce(ctx) }()
			}
		}
	}()
}

// RunOnce performs a single collection run: fetch, validate, batch insert.
// If another run is in flight it returns a skipped report and does nothing.
// Any feed or store error aborts only this run.
func (c *Collector) RunOnce(ctx context.Context) (RunReport, error) {
	report := RunReport{StartedAt: c.now().UTC()}

	if !c.running.CompareAndSwap(false, true) {
		report.Skipped = true
		c.logger.Warn("collection run skipped, previous run still in flight")
		return report, nil
	}
	defer c.running.Store(false)

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	products, err := c.feed.GetBazaarProducts(fetchCtx)
	if err != nil {
		err = fmt.Errorf("%w: %v", bazaar.ErrFeedUnavailable, err)
		c.logger.Error("failed to fetch bazaar snapshot", zap.Error(err))
		return report, err
	}
	report.ItemsFetched = len(products)

	batch := c.buildBatch(products, report.StartedAt)
	report.ItemsAccepted = len(batch)
	report.ItemsRejected = report.ItemsFetched - report.ItemsAccepted

	if len(batch) == 0 {
		c.logger.Warn("no valid items in feed snapshot, skipping write",
			zap.Int("fetched", report.ItemsFetched))
		return report, nil
	}

	if err := c.store.InsertBatch(ctx, batch); err != nil {
		err = fmt.Errorf("%w: %v", bazaar.ErrStoreUnavailable, err)
		c.logger.Error("failed to insert snapshot batch",
			zap.Int("records", len(batch)), zap.Error(err))
		return report, err
	}

	if c.publish != nil {
		c.publish(batch)
	}

	c.logger.Info("collection run complete",
		zap.Int("fetched", report.ItemsFetched),
		zap.Int("accepted", report.ItemsAccepted),
		zap.Int("rejected", report.ItemsRejected),
		zap.Duration("elapsed", c.now().UTC().Sub(report.StartedAt)))

	return report, nil
}

// buildBatch maps the feed payload into snapshots. An item is accepted only
// when it carries a non-empty product id and a status payload; everything
// else is dropped from the batch without failing the run. All rows of one
// run share the run's observation timestamp.
func (c *Collector) buildBatch(products map[string]hypixel.Product, ts time.Time) []bazaar.Snapshot {
	keys := make([]string, 0, len(products))
	for k := range products {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	batch := make([]bazaar.Snapshot, 0, len(products))
	for _, k := range keys {
		p := products[k]
		itemID := strings.ToUpper(strings.TrimSpace(p.ProductID))
		if itemID == "" || p.QuickStatus == nil {
			continue
		}

		qs := p.QuickStatus
		batch = append(batch, bazaar.Snapshot{
			ItemID:         itemID,
			Timestamp:      ts,
			SellPrice:      qs.SellPrice,
			BuyPrice:       qs.BuyPrice,
			SellVolume:     qs.SellVolume,
			BuyVolume:      qs.BuyVolume,
			SellMovingWeek: qs.SellMovingWeek,
			BuyMovingWeek:  qs.BuyMovingWeek,
		})
	}
	return batch
}
