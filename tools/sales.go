package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tzenderman/mcp-cin7-core/cin7"
	"github.com/tzenderman/mcp-cin7-core/project"
)

func (s *Server) registerSales(srv *mcp.Server) {
	type req struct {
		Limit  int      `json:"limit"`
		Cursor string   `json:"cursor"`
		Search string   `json:"search"`
		Fields []string `json:"fields"`
	}

	tool := &mcp.Tool{
		Name: "cin7_sales",
		Description: "List sales with pagination and an optional search filter. " +
			"Default fields: Order, SaleOrderNumber, Customer, Location. Available: Order, " +
			"SaleOrderNumber, Customer, Location, Status, OrderDate, InvoiceDate, Total, Tax, TotalPaid.",
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
		raw, err := s.client.ListSales(ctx, cin7.ListOptions{Page: page, Limit: limit, Search: p.Search})
		if err != nil {
			return nil, err
		}
		items, total := pageOf(raw, "SaleList")
		items = project.Items(items, p.Fields, []string{"Order", "SaleOrderNumber", "Customer", "Location"})
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

func (s *Server) registerGetSale(srv *mcp.Server) {
	type req struct {
		SaleID                   string   `json:"sale_id"`
		CombineAdditionalCharges bool     `json:"combine_additional_charges"`
		HideInventoryMovements   bool     `json:"hide_inventory_movements"`
		IncludeTransactions      bool     `json:"include_transactions"`
		Fields                   []string `json:"fields"`
	}

	tool := &mcp.Tool{
		Name: "cin7_get_sale",
		Description: "Get a single sale by ID with full details including line items. " +
			"Default fields: ID, Order, Customer. Available: ID, Order, Customer, Location, " +
			"Status, Quote, Fulfilments, Invoices, CreditNotes, InventoryMovements, Transactions.",
		InputSchema: inputSchema(map[string]any{
			"sale_id":                    map[string]any{"type": "string", "description": "Sale UUID"},
			"combine_additional_charges": map[string]any{"type": "boolean", "description": "Combine additional charges into line totals"},
			"hide_inventory_movements":   map[string]any{"type": "boolean", "description": "Exclude inventory movement details"},
			"include_transactions":       map[string]any{"type": "boolean", "description": "Include financial transaction details"},
			"fields":                     map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": `Extra fields beyond defaults, or ["*"] for all`},
		}, []string{"sale_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		if p.SaleID == "" {
			return nil, errors.New("sale_id is required")
		}
		sale, err := s.client.GetSale(ctx, p.SaleID, cin7.SaleDetailOptions{
			CombineAdditionalCharges: p.CombineAdditionalCharges,
			HideInventoryMovements:   p.HideInventoryMovements,
			IncludeTransactions:      p.IncludeTransactions,
		})
		if err != nil {
			return nil, err
		}
		return project.Record(sale, p.Fields, []string{"ID", "Order", "Customer"}), nil
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

func (s *Server) registerCreateSale(srv *mcp.Server) {
	type req struct {
		Payload map[string]any `json:"payload"`
	}

	tool := &mcp.Tool{
		Name: "cin7_create_sale",
		Description: "Create a sale via POST Sale. Read cin7://templates/sale first for the payload " +
			"structure. Required: Customer or CustomerID, Location, Status (DRAFT or AUTHORISED), " +
			"SkipQuote. A Lines array is forwarded internally to POST sale/order.",
		InputSchema: inputSchema(map[string]any{
			"payload": map[string]any{"type": "object", "description": "Sale payload as defined by the Cin7 Core API"},
		}, []string{"payload"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.client.CreateSale(ctx, p.Payload)
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

func (s *Server) registerUpdateSale(srv *mcp.Server) {
	type req struct {
		Payload map[string]any `json:"payload"`
	}

	tool := &mcp.Tool{
		Name:        "cin7_update_sale",
		Description: "Update a sale via PUT Sale. The payload must include the SaleID.",
		InputSchema: inputSchema(map[string]any{
			"payload": map[string]any{"type": "object", "description": "Sale payload including SaleID"},
		}, []string{"payload"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.client.UpdateSale(ctx, p.Payload)
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
