package hypixel

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the Hypixel public API.
type Client struct {
	client *resty.Client
	apiKey string
}

// NewClient creates a Hypixel API client. apiKey may be empty; the bazaar
// endpoint does not require one.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{client: c, apiKey: apiKey}
}

// GetBazaarProducts fetches the current bazaar snapshot: one Product per
// tradable item, keyed by product id.
func (c *Client) GetBazaarProducts(ctx context.Context) (map[string]Product, error) {
	var out BazaarResponse

	req := c.client.R().
		SetContext(ctx).
		SetResult(&out)
	if c.apiKey != "" {
		req.SetHeader("API-Key", c.apiKey)
	}

	resp, err := req.Get("/skyblock/bazaar")
	if err != nil {
		return nil, fmt.Errorf("bazaar request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("bazaar request failed: status %d: %s", resp.StatusCode(), resp.String())
	}
	if !out.Success {
		return nil, fmt.Errorf("bazaar request rejected: %s", out.Cause)
	}

	return out.Products, nil
}
