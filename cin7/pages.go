package cin7

import (
	"context"

	"github.com/tzenderman/mcp-cin7-core/snapshot"
)

// recordList pulls the first matching list key out of an API reply and
// keeps only object-shaped entries. Upstream is inconsistent about its
// list key, so every known variant is tried in order; anything else is
// treated as an empty page.
func recordList(data map[string]any, keys ...string) []map[string]any {
	for _, key := range keys {
		list, ok := data[key].([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(list))
		for _, it := range list {
			if rec, ok := it.(map[string]any); ok {
				out = append(out, rec)
			}
		}
		return out
	}
	return nil
}

// ProductPages adapts the product list endpoint to the snapshot
// builder. Supported filters: name, sku.
func (c *Client) ProductPages() snapshot.PageFetcher {
	return func(ctx context.Context, page, perPage int, filters map[string]string) ([]map[string]any, error) {
		data, err := c.ListProducts(ctx, ListOptions{
			Page:  page,
			Limit: perPage,
			Name:  filters["name"],
			SKU:   filters["sku"],
		})
		if err != nil {
			return nil, err
		}
		return recordList(data, "Products", "result"), nil
	}
}

// StockPages adapts the availability endpoint to the snapshot builder.
// Supported filters: location.
func (c *Client) StockPages() snapshot.PageFetcher {
	return func(ctx context.Context, page, perPage int, filters map[string]string) ([]map[string]any, error) {
		data, err := c.ListAvailability(ctx, ListOptions{
			Page:     page,
			Limit:    perPage,
			Location: filters["location"],
		})
		if err != nil {
			return nil, err
		}
		return recordList(data, "ProductAvailabilityList"), nil
	}
}
