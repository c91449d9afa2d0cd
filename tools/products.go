package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tzenderman/mcp-cin7-core/cin7"
	"github.com/tzenderman/mcp-cin7-core/project"
)

func (s *Server) registerProducts(srv *mcp.Server) {
	type req struct {
		Limit  int      `json:"limit"`
		Cursor string   `json:"cursor"`
		Name   string   `json:"name"`
		SKU    string   `json:"sku"`
		Fields []string `json:"fields"`
	}

	tool := &mcp.Tool{
		Name: "cin7_products",
		Description: "List products with pagination and optional name/SKU filters. " +
			"Default fields: SKU, Name. Available: ID, SKU, Name, Category, Brand, Status, " +
			"Type, UOM, CostingMethod, DefaultLocation, PriceTier1, PurchasePrice, Barcode.",
		InputSchema: inputSchema(map[string]any{
			"limit":  map[string]any{"type": "integer", "description": "Items per page"},
			"cursor": map[string]any{"type": "string", "description": "Cursor from the previous response"},
			"name":   map[string]any{"type": "string", "description": "Name filter"},
			"sku":    map[string]any{"type": "string", "description": "SKU filter"},
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
		raw, err := s.client.ListProducts(ctx, cin7.ListOptions{Page: page, Limit: limit, Name: p.Name, SKU: p.SKU})
		if err != nil {
			return nil, err
		}
		items, total := pageOf(raw, "Products")
		items = project.Items(items, p.Fields, []string{"SKU", "Name"})
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

func (s *Server) registerGetProduct(srv *mcp.Server) {
	type req struct {
		ProductID string   `json:"product_id"`
		SKU       string   `json:"sku"`
		Fields    []string `json:"fields"`
	}

	tool := &mcp.Tool{
		Name:        "cin7_get_product",
		Description: "Get a single product by ID or SKU. Default fields: ID, SKU, Name.",
		InputSchema: inputSchema(map[string]any{
			"product_id": map[string]any{"type": "string", "description": "Product GUID"},
			"sku":        map[string]any{"type": "string", "description": "Product SKU"},
			"fields":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": `Extra fields beyond defaults, or ["*"] for all`},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		product, err := s.client.GetProduct(ctx, p.ProductID, p.SKU)
		if err != nil {
			return nil, err
		}
		return project.Record(product, p.Fields, []string{"ID", "SKU", "Name"}), nil
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

func (s *Server) registerCreateProduct(srv *mcp.Server) {
	type req struct {
		Payload map[string]any `json:"payload"`
	}

	tool := &mcp.Tool{
		Name: "cin7_create_product",
		Description: "Create a product via POST Product. Read cin7://templates/product first for " +
			"the payload structure. Required: SKU, Name, Category, Type, CostingMethod, UOM, Status. " +
			"A Suppliers array is registered separately via the product-suppliers endpoint after creation.",
		InputSchema: inputSchema(map[string]any{
			"payload": map[string]any{"type": "object", "description": "Product payload as defined by the Cin7 Core API"},
		}, []string{"payload"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.saveProductWithSuppliers(ctx, p.Payload, false)
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

func (s *Server) registerUpdateProduct(srv *mcp.Server) {
	type req struct {
		Payload map[string]any `json:"payload"`
	}

	tool := &mcp.Tool{
		Name: "cin7_update_product",
		Description: "Update a product via PUT Product. A Suppliers array is forwarded to the " +
			"product-suppliers endpoint after the update; it must contain the FULL supplier list, " +
			"any supplier left out is disassociated.",
		InputSchema: inputSchema(map[string]any{
			"payload": map[string]any{"type": "object", "description": "Product payload including ID"},
		}, []string{"payload"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return s.saveProductWithSuppliers(ctx, p.Payload, true)
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

// saveProductWithSuppliers writes the product, then registers any
// Suppliers array through the separate product-suppliers endpoint. A
// supplier failure never fails the tool; it is reported in-band through
// marker fields on the result.
func (s *Server) saveProductWithSuppliers(ctx context.Context, payload map[string]any, update bool) (map[string]any, error) {
	product := make(map[string]any, len(payload))
	for k, v := range payload {
		product[k] = v
	}
	suppliers, _ := product["Suppliers"].([]any)
	delete(product, "Suppliers")

	var (
		result map[string]any
		err    error
	)
	if update {
		result, err = s.client.UpdateProduct(ctx, product)
	} else {
		result, err = s.client.CreateProduct(ctx, product)
	}
	if err != nil {
		return nil, err
	}

	if len(suppliers) == 0 {
		return result, nil
	}

	registeredKey := "_suppliersRegistered"
	if update {
		registeredKey = "_suppliersUpdated"
	}

	productID := stringField(product, "ID", "ProductID")
	if productID == "" {
		productID = stringField(result, "ID", "ProductID")
	}
	if productID == "" {
		result[registeredKey] = false
		result["_supplierError"] = "could not extract product ID to register suppliers"
		return result, nil
	}

	_, err = s.client.UpdateProductSuppliers(ctx, []map[string]any{{
		"ProductID": productID,
		"Suppliers": suppliers,
	}})
	if err != nil {
		s.log.Error("supplier registration failed", "product_id", productID, "error", err)
		result[registeredKey] = false
		result["_supplierError"] = err.Error()
		return result, nil
	}
	result[registeredKey] = true
	result["_supplierCount"] = len(suppliers)
	return result, nil
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
