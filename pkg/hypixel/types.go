package hypixel

// BazaarResponse is the envelope of the /skyblock/bazaar endpoint.
type BazaarResponse struct {
	Success     bool               `json:"success"`
	Cause       string             `json:"cause"`
	LastUpdated int64              `json:"lastUpdated"`
	Products    map[string]Product `json:"products"`
}

// Product is one tradable item as reported by the feed. QuickStatus is a
// pointer so a missing status payload is distinguishable from a zeroed one;
// items without it are rejected by the collector.
type Product struct {
	ProductID   string       `json:"product_id"`
	QuickStatus *QuickStatus `json:"quick_status"`
}

// QuickStatus carries the current order book summary of a product. The feed
// omits fields for dead items; omitted values decode to zero, which is the
// documented default.
type QuickStatus struct {
	SellPrice      float64 `json:"sellPrice"`
	BuyPrice       float64 `json:"buyPrice"`
	SellVolume     int64   `json:"sellVolume"`
	BuyVolume      int64   `json:"buyVolume"`
	SellMovingWeek int64   `json:"sellMovingWeek"`
	BuyMovingWeek  int64   `json:"buyMovingWeek"`
}
