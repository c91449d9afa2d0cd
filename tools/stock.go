package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tzenderman/mcp-cin7-core/cin7"
	"github.com/tzenderman/mcp-cin7-core/project"
)

func (s *Server) registerStockLevels(srv *mcp.Server) {
	type req struct {
		Limit    int      `json:"limit"`
		Cursor   string   `json:"cursor"`
		Location string   `json:"location"`
		Fields   []string `json:"fields"`
	}

	tool := &mcp.Tool{
		Name: "cin7_stock_levels",
		Description: "List stock levels across all products and locations. Default fields: SKU, " +
			"Location, OnHand, Available. Available: SKU, Location, OnHand, Available, Allocated, " +
			"OnOrder, InTransit, NextDeliveryDate, Bin, Batch, Barcode.",
		InputSchema: inputSchema(map[string]any{
			"limit":    map[string]any{"type": "integer", "description": "Items per page (max 1000)"},
			"cursor":   map[string]any{"type": "string", "description": "Cursor from the previous response"},
			"location": map[string]any{"type": "string", "description": "Location name filter"},
			"fields":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": `Extra fields beyond defaults, or ["*"] for all`},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		page, err := pageFromCursor(p.Cursor)
		if err != nil {
			return nil, err
		}
		limit := p.Limit
		if limit <= 0 {
			limit = 100
		}
		raw, err := s.client.ListAvailability(ctx, cin7.ListOptions{Page: page, Limit: limit, Location: p.Location})
		if err != nil {
			return nil, err
		}
		items, total := pageOf(raw, "ProductAvailabilityList")
		items = project.Items(items, p.Fields, []string{"SKU", "Location", "OnHand", "Available"})
		return listResult(items, page, limit, total), nil
	}

	decode := func(r *mcp.CallToolRequest) (any, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	s.register(srv, tool, endpoint, decode)
}

func (s *Server) registerGetStock(srv *mcp.Server) {
	type req struct {
		SKU       string   `json:"sku"`
		ProductID string   `json:"product_id"`
		Fields    []string `json:"fields"`
	}

	tool := &mcp.Tool{
		Name: "cin7_get_stock",
		Description: "Get stock levels for a single product across all locations. Default fields: " +
			"sku, product_id. Available: sku, product_id, locations, total_on_hand, total_available.",
		InputSchema: inputSchema(map[string]any{
			"sku":        map[string]any{"type": "string", "description": "Product SKU (preferred)"},
			"product_id": map[string]any{"type": "string", "description": "Product GUID"},
			"fields":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": `Extra fields beyond defaults, or ["*"] for all`},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		locations, err := s.client.ProductAvailability(ctx, p.ProductID, p.SKU)
		if err != nil {
			return nil, err
		}

		var onHand, available float64
		for _, loc := range locations {
			onHand += numberField(loc, "OnHand")
			available += numberField(loc, "Available")
		}

		sku := p.SKU
		if sku == "" && len(locations) > 0 {
			sku = stringField(locations[0], "SKU")
		}
		productID := p.ProductID
		if productID == "" && len(locations) > 0 {
			productID = stringField(locations[0], "ProductID")
		}
		if locations == nil {
			locations = []map[string]any{}
		}

		result := map[string]any{
			"sku":             sku,
			"product_id":      productID,
			"locations":       locations,
			"total_on_hand":   onHand,
			"total_available": available,
		}
		return project.Record(result, p.Fields, []string{"sku", "product_id"}), nil
	}

	decode := func(r *mcp.CallToolRequest) (any, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	s.register(srv, tool, endpoint, decode)
}

func (s *Server) registerStockTransfers(srv *mcp.Server) {
	type req struct {
		Limit  int      `json:"limit"`
		Cursor string   `json:"cursor"`
		Search string   `json:"search"`
		Fields []string `json:"fields"`
	}

	tool := &mcp.Tool{
		Name: "cin7_stock_transfers",
		Description: "List stock transfers with pagination and an optional search filter. " +
			"Default fields: TaskID, FromLocation, ToLocation, Status, TransferDate. Available: " +
			"TaskID, FromLocation, ToLocation, Status, TransferDate, Lines.",
		InputSchema: inputSchema(map[string]any{
			"limit":  map[string]any{"type": "integer", "description": "Items per page"},
			"cursor": map[string]any{"type": "string", "description": "Cursor from the previous response"},
			"search": map[string]any{"type": "string", "description": "Search term"},
			"fields": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": `Extra fields beyond defaults, or ["*"] for all`},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		page, err := pageFromCursor(p.Cursor)
		if err != nil {
			return nil, err
		}
		limit := p.Limit
		if limit <= 0 {
			limit = 100
		}
		raw, err := s.client.ListStockTransfers(ctx, cin7.ListOptions{Page: page, Limit: limit, Search: p.Search})
		if err != nil {
			return nil, err
		}
		items, total := pageOf(raw, "StockTransferList")
		items = project.Items(items, p.Fields, []string{"TaskID", "FromLocation", "ToLocation", "Status", "TransferDate"})
		return listResult(items, page, limit, total), nil
	}

	decode := func(r *mcp.CallToolRequest) (any, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	s.register(srv, tool, endpoint, decode)
}

func (s *Server) registerGetStockTransfer(srv *mcp.Server) {
	type req struct {
		StockTransferID string   `json:"stock_transfer_id"`
		Fields          []string `json:"fields"`
	}

	tool := &mcp.Tool{
		Name: "cin7_get_stock_transfer",
		Description: "Get a single stock transfer by task ID. Default fields: TaskID, FromLocation, " +
			"ToLocation. Available: TaskID, FromLocation, ToLocation, Status, TransferDate, Lines.",
		InputSchema: inputSchema(map[string]any{
			"stock_transfer_id": map[string]any{"type": "string", "description": "Stock transfer task ID"},
			"fields":            map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": `Extra fields beyond defaults, or ["*"] for all`},
		}, []string{"stock_transfer_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		if p.StockTransferID == "" {
			return nil, errors.New("stock_transfer_id is required")
		}
		transfer, err := s.client.GetStockTransfer(ctx, p.StockTransferID)
		if err != nil {
			return nil, err
		}
		return project.Record(transfer, p.Fields, []string{"TaskID", "FromLocation", "ToLocation"}), nil
	}

	decode := func(r *mcp.CallToolRequest) (any, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	s.register(srv, tool, endpoint, decode)
}

func numberField(m map[string]any, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}
