package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tzenderman/mcp-cin7-core/cin7"
	"github.com/tzenderman/mcp-cin7-core/project"
)

func (s *Server) registerSuppliers(srv *mcp.Server) {
	type req struct {
		Limit  int      `json:"limit"`
		Cursor string   `json:"cursor"`
		Name   string   `json:"name"`
		Fields []string `json:"fields"`
	}

	tool := &mcp.Tool{
		Name: "cin7_suppliers",
		Description: "List suppliers with pagination and an optional name filter. " +
			"Default fields: ID, Name. Available: ID, Name, ContactPerson, Phone, Email, " +
			"Currency, TaxRule, PaymentTerm.",
		InputSchema: inputSchema(map[string]any{
			"limit":  map[string]any{"type": "integer", "description": "Items per page"},
			"cursor": map[string]any{"type": "string", "description": "Cursor from the previous response"},
			"name":   map[string]any{"type": "string", "description": "Name filter"},
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
		raw, err := s.client.ListSuppliers(ctx, cin7.ListOptions{Page: page, Limit: limit, Name: p.Name})
		if err != nil {
			return nil, err
		}
		items, total := pageOf(raw, "SupplierList")
		items = project.Items(items, p.Fields, []string{"ID", "Name"})
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

func (s *Server) registerGetSupplier(srv *mcp.Server) {
	type req struct {
		SupplierID string   `json:"supplier_id"`
		Name       string   `json:"name"`
		Fields     []string `json:"fields"`
	}

	tool := &mcp.Tool{
		Name:        "cin7_get_supplier",
		Description: "Get a single supplier by ID or name. Default fields: ID, Name.",
		InputSchema: inputSchema(map[string]any{
			"supplier_id": map[string]any{"type": "string", "description": "Supplier GUID"},
			"name":        map[string]any{"type": "string", "description": "Supplier name"},
			"fields":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": `Extra fields beyond defaults, or ["*"] for all`},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		supplier, err := s.client.GetSupplier(ctx, p.SupplierID, p.Name)
		if err != nil {
			return nil, err
		}
		return project.Record(supplier, p.Fields, []string{"ID", "Name"}), nil
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

func (s *Server) registerCreateSupplier(srv *mcp.Server) {
	type req struct {
		Payload map[string]any `json:"payload"`
	}

	tool := &mcp.Tool{
		Name: "cin7_create_supplier",
		Description: "Create a supplier via POST Supplier. Read cin7://templates/supplier first for " +
			"the payload structure. Required: Name, Currency, PaymentTerm, AccountPayable, TaxRule.",
		InputSchema: inputSchema(map[string]any{
			"payload": map[string]any{"type": "object", "description": "Supplier payload as defined by the Cin7 Core API"},
		}, []string{"payload"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.client.CreateSupplier(ctx, p.Payload)
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

func (s *Server) registerUpdateSupplier(srv *mcp.Server) {
	type req struct {
		Payload map[string]any `json:"payload"`
	}

	tool := &mcp.Tool{
		Name:        "cin7_update_supplier",
		Description: "Update a supplier via PUT Supplier. The payload must include the supplier ID.",
		InputSchema: inputSchema(map[string]any{
			"payload": map[string]any{"type": "object", "description": "Supplier payload including ID"},
		}, []string{"payload"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.client.UpdateSupplier(ctx, p.Payload)
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
