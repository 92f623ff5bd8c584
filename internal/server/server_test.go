package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bazaartrack/internal/bazaar"
	"bazaartrack/internal/bazaar/analytics"
	"bazaartrack/internal/bazaar/collector"
	"bazaartrack/internal/bazaar/stream"
	"bazaartrack/pkg/hypixel"
	"bazaartrack/pkg/storage/memory"

	"go.uber.org/zap"
)

func newTestServer(store bazaar.Store, env string) *Server {
	logger := zap.NewNop()
	return New(analytics.New(store), stream.NewHub(logger), nil, logger, env)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	return env
}

// go test -v --run TestHistoryEndpoint
func TestHistoryEndpoint(t *testing.T) {
	store := memory.NewStore()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.InsertBatch(context.Background(), []bazaar.Snapshot{
		{ItemID: "ITEM_A", Timestamp: ts, BuyPrice: 9, SellPrice: 10},
	})

	s := newTestServer(store, "prod")
	w := get(t, s, "/api/bazaar/history/ITEM_A?startDate=2025-06-01&endDate=2025-06-02&interval=raw")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	env := decode(t, w)
	if !env.Success {
		t.Fatalf("expected success envelope: %s", w.Body.String())
	}
	var points []bazaar.PricePoint
	if err := json.Unmarshal(env.Data, &points); err != nil {
		t.Fatalf("bad data payload: %v", err)
	}
	if len(points) != 1 || points[0].BuyPrice != 9 {
		t.Errorf("unexpected history payload: %+v", points)
	}
}

// go test -v --run TestHistoryEndpointMissingParams
func TestHistoryEndpointMissingParams(t *testing.T) {
	s := newTestServer(memory.NewStore(), "prod")

	w := get(t, s, "/api/bazaar/history/ITEM_A")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Success || env.Message == "" {
		t.Errorf("expected failure envelope with message: %s", w.Body.String())
	}
}

// go test -v --run TestVolatilityEndpointInvalidLimit
func TestVolatilityEndpointInvalidLimit(t *testing.T) {
	s := newTestServer(memory.NewStore(), "prod")

	w := get(t, s, "/api/bazaar/volatility?limit=lots")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

// errStore fails every read.
type errStore struct{ *memory.Store }

func (e errStore) LatestPerItem(ctx context.Context) ([]bazaar.Snapshot, error) {
	return nil, errors.New("connection reset by peer")
}

// go test -v --run TestStoreErrorDetailOnlyInDev
func TestStoreErrorDetailOnlyInDev(t *testing.T) {
	store := errStore{memory.NewStore()}

	prod := newTestServer(store, "prod")
	w := get(t, prod, "/api/bazaar/latest")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	env := decode(t, w)
	if env.Error != "" {
		t.Errorf("prod response must not leak error detail: %s", w.Body.String())
	}
	if env.Message != "Internal server error" {
		t.Errorf("expected safe summary message, got %q", env.Message)
	}

	dev := newTestServer(store, "dev")
	w = get(t, dev, "/api/bazaar/latest")
	env = decode(t, w)
	if env.Error == "" {
		t.Error("dev response should include error detail")
	}
}

type staticFeed map[string]hypixel.Product

func (f staticFeed) GetBazaarProducts(ctx context.Context) (map[string]hypixel.Product, error) {
	return f, nil
}

// go test -v --run TestEndToEndCollectThenLatest
func TestEndToEndCollectThenLatest(t *testing.T) {
	store := memory.NewStore()

	feed := staticFeed{
		"ITEM_A": {ProductID: "ITEM_A", QuickStatus: &hypixel.QuickStatus{
			SellPrice: 10, BuyPrice: 9, SellVolume: 5, BuyVolume: 3,
		}},
		"ITEM_B": {ProductID: "ITEM_B"},
	}
	c := collector.New(feed, store, zap.NewNop(), 5*time.Minute, time.Second)
	if _, err := c.RunOnce(context.Background()); err != nil {
		t.Fatalf("collection failed: %v", err)
	}

	s := newTestServer(store, "prod")
	w := get(t, s, "/api/bazaar/latest")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var snaps []bazaar.Snapshot
	env := decode(t, w)
	if err := json.Unmarshal(env.Data, &snaps); err != nil {
		t.Fatalf("bad data payload: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("expected exactly one item, got %d", len(snaps))
	}
	got := snaps[0]
	if got.ItemID != "ITEM_A" || got.SellPrice != 10 || got.BuyPrice != 9 {
		t.Errorf("unexpected snapshot: %+v", got)
	}
	if got.SellMovingWeek != 0 || got.BuyMovingWeek != 0 {
		t.Errorf("moving-week fields must default to 0: %+v", got)
	}
}
