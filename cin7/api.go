package cin7

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ListOptions covers the shared paging knobs of the list endpoints.
// Filter fields that a given endpoint does not support are ignored.
type ListOptions struct {
	Page      int
	Limit     int
	Name      string
	SKU       string
	Search    string
	Location  string
	ProductID string
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	page := o.Page
	if page < 1 {
		page = 1
	}
	limit := o.Limit
	if limit < 1 {
		limit = 100
	}
	q.Set("Page", strconv.Itoa(page))
	q.Set("Limit", strconv.Itoa(limit))
	return q
}

// checkStatus converts a non-success reply into an APIError.
func checkStatus(op string, r *response, ok ...int) error {
	for _, s := range ok {
		if r.status == s {
			return nil
		}
	}
	return &APIError{Op: op, Status: r.status, Body: r.raw}
}

// HealthStatus is the reply of HealthCheck.
type HealthStatus struct {
	OK                 bool   `json:"ok"`
	Status             int    `json:"status"`
	SampleCount        int    `json:"sample_count"`
	RateLimitRemaining string `json:"rate_limit_remaining,omitempty"`
	BaseURL            string `json:"base_url"`
}

// HealthCheck issues a one-item product list to verify the credentials
// and connectivity.
func (c *Client) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	q := url.Values{}
	q.Set("Page", "1")
	q.Set("Limit", "1")
	r, err := c.request(ctx, "GET", "Product", q, nil)
	if err != nil {
		return nil, err
	}
	if r.status != 200 {
		return nil, &APIError{Op: "Cin7 Core auth failed or API", Status: r.status, Body: r.raw}
	}
	sample := 0
	if list, ok := r.object()["Products"].([]any); ok {
		sample = len(list)
	}
	return &HealthStatus{
		OK:                 true,
		Status:             r.status,
		SampleCount:        sample,
		RateLimitRemaining: r.header.Get("X-RateLimit-Remaining"),
		BaseURL:            c.baseURL,
	}, nil
}

// Me returns account and user info for the configured credentials.
func (c *Client) Me(ctx context.Context) (map[string]any, error) {
	r, err := c.request(ctx, "GET", "me", nil, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Me endpoint", r, 200); err != nil {
		return nil, err
	}
	return r.object(), nil
}

// --- Products ---

// ListProducts pages through the product catalogue with optional
// name/SKU filters.
func (c *Client) ListProducts(ctx context.Context, opt ListOptions) (map[string]any, error) {
	q := opt.values()
	if opt.Name != "" {
		q.Set("Name", opt.Name)
	}
	if opt.SKU != "" {
		q.Set("Sku", opt.SKU)
	}
	r, err := c.request(ctx, "GET", "Product", q, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Product list", r, 200); err != nil {
		return nil, err
	}
	return r.object(), nil
}

// GetProduct fetches one product by GUID or SKU.
func (c *Client) GetProduct(ctx context.Context, productID, sku string) (map[string]any, error) {
	if productID == "" && sku == "" {
		return nil, errors.New("cin7: GetProduct requires a product id or sku")
	}
	q := url.Values{}
	if productID != "" {
		q.Set("ID", productID)
	}
	if sku != "" {
		q.Set("Sku", sku)
	}
	r, err := c.request(ctx, "GET", "Product", q, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Product get", r, 200); err != nil {
		return nil, err
	}
	data := r.object()
	if list, ok := data["Products"].([]any); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("cin7: product: %w", ErrNotFound)
		}
		if first, ok := list[0].(map[string]any); ok {
			return first, nil
		}
	}
	return data, nil
}

// CreateProduct posts a new product record.
func (c *Client) CreateProduct(ctx context.Context, product map[string]any) (map[string]any, error) {
	r, err := c.request(ctx, "POST", "Product", nil, product)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Product save", r, 200, 201); err != nil {
		return nil, err
	}
	return r.object(), nil
}

// UpdateProduct puts an existing product record.
func (c *Client) UpdateProduct(ctx context.Context, product map[string]any) (map[string]any, error) {
	r, err := c.request(ctx, "PUT", "Product", nil, product)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Product update", r, 200, 204); err != nil {
		return nil, err
	}
	return r.object(), nil
}

// --- Suppliers ---

func (c *Client) ListSuppliers(ctx context.Context, opt ListOptions) (map[string]any, error) {
	q := opt.values()
	if opt.Name != "" {
		q.Set("Name", opt.Name)
	}
	r, err := c.request(ctx, "GET", "Supplier", q, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Supplier list", r, 200); err != nil {
		return nil, err
	}
	return r.object(), nil
}

// GetSupplier fetches one supplier by GUID or exact name.
func (c *Client) GetSupplier(ctx context.Context, supplierID, name string) (map[string]any, error) {
	if supplierID == "" && name == "" {
		return nil, errors.New("cin7: GetSupplier requires a supplier id or name")
	}
	q := url.Values{}
	if supplierID != "" {
		q.Set("ID", supplierID)
	}
	if name != "" {
		q.Set("Name", name)
	}
	r, err := c.request(ctx, "GET", "Supplier", q, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Supplier get", r, 200); err != nil {
		return nil, err
	}
	data := r.object()
	if list, ok := data["SupplierList"].([]any); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("cin7: supplier: %w", ErrNotFound)
		}
		if first, ok := list[0].(map[string]any); ok {
			return first, nil
		}
	}
	return data, nil
}

func (c *Client) CreateSupplier(ctx context.Context, supplier map[string]any) (map[string]any, error) {
	r, err := c.request(ctx, "POST", "Supplier", nil, supplier)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Supplier save", r, 200, 201); err != nil {
		return nil, err
	}
	return r.object(), nil
}

func (c *Client) UpdateSupplier(ctx context.Context, supplier map[string]any) (map[string]any, error) {
	r, err := c.request(ctx, "PUT", "Supplier", nil, supplier)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Supplier update", r, 200, 204); err != nil {
		return nil, err
	}
	return r.object(), nil
}

// --- Sales ---

func (c *Client) ListSales(ctx context.Context, opt ListOptions) (map[string]any, error) {
	q := opt.values()
	if opt.Search != "" {
		q.Set("Search", opt.Search)
	}
	r, err := c.request(ctx, "GET", "saleList", q, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Sale list", r, 200); err != nil {
		return nil, err
	}
	return r.object(), nil
}

// SaleDetailOptions toggles the expensive expansions of GetSale.
type SaleDetailOptions struct {
	CombineAdditionalCharges bool
	HideInventoryMovements   bool
	IncludeTransactions      bool
}

// GetSale fetches one sale with line items by GUID.
func (c *Client) GetSale(ctx context.Context, saleID string, opt SaleDetailOptions) (map[string]any, error) {
	if saleID == "" {
		return nil, errors.New("cin7: GetSale requires a sale id")
	}
	q := url.Values{}
	q.Set("ID", saleID)
	if opt.CombineAdditionalCharges {
		q.Set("CombineAdditionalCharges", "true")
	}
	if opt.HideInventoryMovements {
		q.Set("HideInventoryMovements", "true")
	}
	if opt.IncludeTransactions {
		q.Set("IncludeTransactions", "true")
	}
	r, err := c.request(ctx, "GET", "Sale", q, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Sale get", r, 200); err != nil {
		return nil, err
	}
	return r.object(), nil
}

// CreateSale runs the two-step sale creation: POST Sale makes the
// header and returns the SaleID, then POST sale/order attaches the
// lines. Status and SkipQuote are the caller's responsibility, no
// defaults are injected.
func (c *Client) CreateSale(ctx context.Context, sale map[string]any) (map[string]any, error) {
	header, lines, charges, memo := splitOrderPayload(sale)

	r, err := c.request(ctx, "POST", "Sale", nil, header)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Sale header creation", r, 200, 201); err != nil {
		return nil, err
	}
	data := r.object()
	saleID, _ := data["ID"].(string)
	if saleID == "" {
		return nil, errors.New("cin7: no ID returned from Sale creation")
	}

	if len(lines) == 0 {
		return data, nil
	}

	order := map[string]any{"SaleID": saleID, "Lines": lines}
	if status, ok := header["Status"]; ok {
		order["Status"] = status
	}
	if len(charges) > 0 {
		order["AdditionalCharges"] = charges
	}
	if memo != nil {
		order["Memo"] = memo
	}
	or, err := c.request(ctx, "POST", "sale/order", nil, order)
	if err != nil {
		return nil, err
	}
	if or.status != 200 && or.status != 201 {
		return nil, &APIError{
			Op:     fmt.Sprintf("Sale order lines creation (orphaned SaleID=%s)", saleID),
			Status: or.status,
			Body:   or.raw,
		}
	}
	data["Order"] = or.object()
	return data, nil
}

func (c *Client) UpdateSale(ctx context.Context, sale map[string]any) (map[string]any, error) {
	r, err := c.request(ctx, "PUT", "Sale", nil, sale)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Sale update", r, 200, 204); err != nil {
		return nil, err
	}
	return r.object(), nil
}

// --- Purchase orders ---

func (c *Client) ListPurchaseOrders(ctx context.Context, opt ListOptions) (map[string]any, error) {
	q := opt.values()
	if opt.Search != "" {
		q.Set("Search", opt.Search)
	}
	r, err := c.request(ctx, "GET", "purchaseList", q, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Purchase Order list", r, 200); err != nil {
		return nil, err
	}
	return r.object(), nil
}

func (c *Client) GetPurchaseOrder(ctx context.Context, purchaseOrderID string) (map[string]any, error) {
	if purchaseOrderID == "" {
		return nil, errors.New("cin7: GetPurchaseOrder requires a purchase order id")
	}
	q := url.Values{}
	q.Set("ID", purchaseOrderID)
	r, err := c.request(ctx, "GET", "Purchase", q, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Purchase Order get", r, 200); err != nil {
		return nil, err
	}
	data := r.object()
	if list, ok := data["PurchaseList"].([]any); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("cin7: purchase order: %w", ErrNotFound)
		}
		if first, ok := list[0].(map[string]any); ok {
			return first, nil
		}
	}
	return data, nil
}

// CreatePurchaseOrder runs the two-step purchase creation: POST
// Purchase makes the header and returns the TaskID, then POST
// purchase/order attaches the lines.
func (c *Client) CreatePurchaseOrder(ctx context.Context, purchaseOrder map[string]any) (map[string]any, error) {
	header, lines, charges, memo := splitOrderPayload(purchaseOrder)
	delete(header, "Order")

	r, err := c.request(ctx, "POST", "Purchase", nil, header)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Purchase Order header creation", r, 200, 201); err != nil {
		return nil, err
	}
	data := r.object()
	taskID, _ := data["ID"].(string)
	if taskID == "" {
		taskID, _ = data["TaskID"].(string)
	}
	if taskID == "" {
		return nil, errors.New("cin7: no TaskID returned from Purchase creation")
	}

	if len(lines) == 0 {
		return data, nil
	}

	order := map[string]any{"TaskID": taskID, "Lines": lines}
	if status, ok := header["Status"]; ok {
		order["Status"] = status
	}
	if len(charges) > 0 {
		order["AdditionalCharges"] = charges
	}
	if memo != nil {
		order["Memo"] = memo
	}
	or, err := c.request(ctx, "POST", "purchase/order", nil, order)
	if err != nil {
		return nil, err
	}
	if or.status != 200 && or.status != 201 {
		return nil, &APIError{
			Op:     fmt.Sprintf("Purchase Order lines creation (orphaned TaskID=%s)", taskID),
			Status: or.status,
			Body:   or.raw,
		}
	}
	data["Order"] = or.object()
	return data, nil
}

// --- Stock transfers ---

func (c *Client) ListStockTransfers(ctx context.Context, opt ListOptions) (map[string]any, error) {
	q := opt.values()
	if opt.Search != "" {
		q.Set("Search", opt.Search)
	}
	r, err := c.request(ctx, "GET", "stockTransferList", q, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("Stock Transfer list", r, 200); err != nil {
		return nil, err
	}
	return r.object(), nil
}

// GetStockTransfer fetches one stock transfer by TaskID. The API
// reports unknown ids as a 400 with an Exception entry, mapped here to
// ErrNotFound.
func (c *Client) GetStockTransfer(ctx context.Context, stockTransferID string) (map[string]any, error) {
	if stockTransferID == "" {
		return nil, errors.New("cin7: GetStockTransfer requires a stock transfer id")
	}
	q := url.Values{}
	q.Set("TaskID", stockTransferID)
	r, err := c.request(ctx, "GET", "stockTransfer", q, nil)
	if err != nil {
		return nil, err
	}
	if r.status == 200 {
		data := r.object()
		if list, ok := data["StockTransferList"].([]any); ok {
			if len(list) == 0 {
				return nil, fmt.Errorf("cin7: stock transfer: %w", ErrNotFound)
			}
			if first, ok := list[0].(map[string]any); ok {
				return first, nil
			}
		}
		return data, nil
	}
	if r.status == 400 {
		if list, ok := r.data.([]any); ok && len(list) > 0 {
			if obj, ok := list[0].(map[string]any); ok {
				if msg, _ := obj["Exception"].(string); strings.Contains(strings.ToLower(msg), "not found") {
					return nil, fmt.Errorf("cin7: stock transfer: %w", ErrNotFound)
				}
			}
		}
	}
	return nil, &APIError{Op: "Stock Transfer get", Status: r.status, Body: r.raw}
}

// --- Product suppliers ---

func (c *Client) ProductSuppliers(ctx context.Context, productID string) (map[string]any, error) {
	if productID == "" {
		return nil, errors.New("cin7: ProductSuppliers requires a product id")
	}
	q := url.Values{}
	q.Set("ProductID", productID)
	r, err := c.request(ctx, "GET", "product-suppliers", q, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("ProductSuppliers get", r, 200); err != nil {
		return nil, err
	}
	return r.object(), nil
}

// UpdateProductSuppliers replaces the supplier associations of one or
// more products.
func (c *Client) UpdateProductSuppliers(ctx context.Context, products []map[string]any) (map[string]any, error) {
	r, err := c.request(ctx, "PUT", "product-suppliers", nil, map[string]any{"Products": products})
	if err != nil {
		return nil, err
	}
	if err := checkStatus("ProductSuppliers update", r, 200, 204); err != nil {
		return nil, err
	}
	return r.object(), nil
}

// --- Stock availability ---

// ListAvailability pages through stock levels per product and location.
func (c *Client) ListAvailability(ctx context.Context, opt ListOptions) (map[string]any, error) {
	q := opt.values()
	if opt.ProductID != "" {
		q.Set("ID", opt.ProductID)
	}
	if opt.SKU != "" {
		q.Set("Sku", opt.SKU)
	}
	if opt.Location != "" {
		q.Set("Location", opt.Location)
	}
	r, err := c.request(ctx, "GET", "ref/productavailability", q, nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus("ProductAvailability list", r, 200); err != nil {
		return nil, err
	}
	return r.object(), nil
}

// ProductAvailability returns every location row of a single product.
func (c *Client) ProductAvailability(ctx context.Context, productID, sku string) ([]map[string]any, error) {
	if productID == "" && sku == "" {
		return nil, errors.New("cin7: ProductAvailability requires a product id or sku")
	}
	data, err := c.ListAvailability(ctx, ListOptions{Limit: 1000, ProductID: productID, SKU: sku})
	if err != nil {
		return nil, err
	}
	return recordList(data, "ProductAvailabilityList"), nil
}

// splitOrderPayload separates the order-level sections of a sale or
// purchase payload from its header fields. The input map is not
// mutated.
func splitOrderPayload(payload map[string]any) (header map[string]any, lines []any, charges []any, memo any) {
	header = make(map[string]any, len(payload))
	for k, v := range payload {
		header[k] = v
	}
	if v, ok := header["Lines"]; ok {
		lines, _ = v.([]any)
		delete(header, "Lines")
	}
	if v, ok := header["AdditionalCharges"]; ok {
		charges, _ = v.([]any)
		delete(header, "AdditionalCharges")
	}
	if v, ok := header["Memo"]; ok {
		memo = v
		delete(header, "Memo")
	}
	return header, lines, charges, memo
}
