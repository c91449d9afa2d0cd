package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tzenderman/mcp-cin7-core/cin7"
	"github.com/tzenderman/mcp-cin7-core/project"
)

func (s *Server) registerPurchaseOrders(srv *mcp.Server) {
	type req struct {
		Limit  int      `json:"limit"`
		Cursor string   `json:"cursor"`
		Search string   `json:"search"`
		Fields []string `json:"fields"`
	}

	tool := &mcp.Tool{
		Name: "cin7_purchase_orders",
		Description: "List purchase orders with pagination and an optional search filter. " +
			"Default fields: TaskID, Supplier, Status, OrderDate, Location. Available: TaskID, " +
			"Supplier, Status, OrderDate, Location, Order, RequiredBy, InvoiceDate, Total, Tax.",
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
		raw, err := s.client.ListPurchaseOrders(ctx, cin7.ListOptions{Page: page, Limit: limit, Search: p.Search})
		if err != nil {
			return nil, err
		}
		items, total := pageOf(raw, "PurchaseList")
		items = project.Items(items, p.Fields, []string{"TaskID", "Supplier", "Status", "OrderDate", "Location"})
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

func (s *Server) registerGetPurchaseOrder(srv *mcp.Server) {
	type req struct {
		PurchaseOrderID string   `json:"purchase_order_id"`
		Fields          []string `json:"fields"`
	}

	tool := &mcp.Tool{
		Name: "cin7_get_purchase_order",
		Description: "Get a single purchase order by task ID. Default fields: TaskID, Supplier, " +
			"Status. Available: ID, TaskID, Supplier, Location, Status, OrderDate, Order, " +
			"RequiredBy, Lines, AdditionalCharges, Invoices.",
		InputSchema: inputSchema(map[string]any{
			"purchase_order_id": map[string]any{"type": "string", "description": "Purchase order task ID"},
			"fields":            map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": `Extra fields beyond defaults, or ["*"] for all`},
		}, []string{"purchase_order_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		if p.PurchaseOrderID == "" {
			return nil, errors.New("purchase_order_id is required")
		}
		po, err := s.client.GetPurchaseOrder(ctx, p.PurchaseOrderID)
		if err != nil {
			return nil, err
		}
		return project.Record(po, p.Fields, []string{"TaskID", "Supplier", "Status"}), nil
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

func (s *Server) registerCreatePurchaseOrder(srv *mcp.Server) {
	type req struct {
		Payload map[string]any `json:"payload"`
	}

	tool := &mcp.Tool{
		Name: "cin7_create_purchase_order",
		Description: "Create a purchase order via POST Purchase. Read cin7://templates/purchase_order " +
			"first for the payload structure. Required: Supplier or SupplierID, Location, Status, " +
			"OrderDate. A Lines array is forwarded internally to POST purchase/order.",
		InputSchema: inputSchema(map[string]any{
			"payload": map[string]any{"type": "object", "description": "Purchase order payload as defined by the Cin7 Core API"},
		}, []string{"payload"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.client.CreatePurchaseOrder(ctx, p.Payload)
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
