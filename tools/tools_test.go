package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tzenderman/mcp-cin7-core/cin7"
)

var testMCPImpl = &mcp.Implementation{Name: "cin7-test", Version: "0.1.0"}

// fakeAPI is an httptest stand-in for the Cin7 Core API, serving a
// small product catalogue with real Page/Limit pagination.
func fakeAPI(t *testing.T) (*httptest.Server, *supplierCalls) {
	t.Helper()

	products := []map[string]any{
		{"ID": "p-1", "SKU": "SKU-1", "Name": "Alpha", "Brand": "Acme"},
		{"ID": "p-2", "SKU": "SKU-2", "Name": "Beta", "Brand": "Acme"},
		{"ID": "p-3", "SKU": "SKU-3", "Name": "Gamma", "Brand": "Orbit"},
	}

	calls := &supplierCalls{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /Product", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("Page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("Limit"))
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = 100
		}
		matched := products
		if sku := r.URL.Query().Get("Sku"); sku != "" {
			matched = nil
			for _, p := range products {
				if p["SKU"] == sku {
					matched = append(matched, p)
				}
			}
		}
		start := (page - 1) * limit
		end := start + limit
		if start > len(matched) {
			start = len(matched)
		}
		if end > len(matched) {
			end = len(matched)
		}
		writeTestJSON(t, w, map[string]any{
			"Products": matched[start:end],
			"Total":    len(matched),
		})
	})
	mux.HandleFunc("POST /Product", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("create product body: %v", err)
		}
		if _, ok := payload["Suppliers"]; ok {
			t.Error("Suppliers must not reach POST /Product")
		}
		payload["ID"] = "p-new"
		writeTestJSON(t, w, payload)
	})
	mux.HandleFunc("PUT /product-suppliers", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("product-suppliers body: %v", err)
		}
		calls.payload = payload
		calls.count++
		writeTestJSON(t, w, map[string]any{"Status": "Success"})
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, _ *http.Request) {
		writeTestJSON(t, w, map[string]any{"Company": "Acme Distribution", "Currency": "USD"})
	})
	mux.HandleFunc("GET /Supplier", func(w http.ResponseWriter, _ *http.Request) {
		writeTestJSON(t, w, map[string]any{
			"SupplierList": []map[string]any{
				{"ID": "s-1", "Name": "Orbit Supply", "Phone": "555-0100"},
			},
			"Total": 1,
		})
	})
	mux.HandleFunc("GET /ref/productavailability", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, map[string]any{
			"ProductAvailabilityList": []map[string]any{
				{"SKU": "SKU-1", "ProductID": "p-1", "Location": "Main", "OnHand": 7.0, "Available": 5.0},
				{"SKU": "SKU-1", "ProductID": "p-1", "Location": "Backup", "OnHand": 3.0, "Available": 3.0},
			},
			"Total": 2,
		})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, calls
}

type supplierCalls struct {
	count   int
	payload map[string]any
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func mcpSession(t *testing.T, upstream *httptest.Server) *mcp.ClientSession {
	t.Helper()
	client := cin7.New("acct", "key",
		cin7.WithBaseURL(upstream.URL+"/"),
		cin7.WithRetryDelays(0),
	)
	server := New(client)
	srv := mcp.NewServer(testMCPImpl, nil)
	server.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	mcpClient := mcp.NewClient(testMCPImpl, nil)
	session, err := mcpClient.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func unmarshalInto(t *testing.T, text string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("unmarshal %q: %v", text, err)
	}
}

// --- account ---

func TestMCP_Status(t *testing.T) {
	ts, _ := fakeAPI(t)
	session := mcpSession(t, ts)

	text := mcpCallTool(t, session, "cin7_status", map[string]any{})
	var resp struct {
		OK          bool `json:"ok"`
		SampleCount int  `json:"sample_count"`
	}
	unmarshalInto(t, text, &resp)
	if !resp.OK {
		t.Error("expected ok=true")
	}
	if resp.SampleCount != 1 {
		t.Errorf("sample_count = %d, want 1", resp.SampleCount)
	}
}

func TestMCP_Me(t *testing.T) {
	ts, _ := fakeAPI(t)
	session := mcpSession(t, ts)

	text := mcpCallTool(t, session, "cin7_me", map[string]any{})
	var resp map[string]any
	unmarshalInto(t, text, &resp)
	if resp["Company"] != "Acme Distribution" {
		t.Errorf("Company = %v", resp["Company"])
	}
}

// --- list shape ---

func TestMCP_Products_ListShape(t *testing.T) {
	// WHAT: one page of 2 out of 3 products, so has_more is true and
	// the cursor points at page 2.
	ts, _ := fakeAPI(t)
	session := mcpSession(t, ts)

	text := mcpCallTool(t, session, "cin7_products", map[string]any{"limit": 2})
	var resp struct {
		Results       []map[string]any `json:"results"`
		HasMore       bool             `json:"has_more"`
		Cursor        *string          `json:"cursor"`
		TotalReturned int              `json:"total_returned"`
	}
	unmarshalInto(t, text, &resp)

	if len(resp.Results) != 2 || resp.TotalReturned != 2 {
		t.Fatalf("results: got %d (total_returned %d)", len(resp.Results), resp.TotalReturned)
	}
	if !resp.HasMore || resp.Cursor == nil || *resp.Cursor != "2" {
		t.Errorf("pagination: has_more=%v cursor=%v", resp.HasMore, resp.Cursor)
	}
	// Default projection keeps SKU and Name only.
	first := resp.Results[0]
	if first["SKU"] != "SKU-1" || first["Name"] != "Alpha" {
		t.Errorf("first record: %v", first)
	}
	if _, ok := first["Brand"]; ok {
		t.Error("Brand should be projected out by default")
	}
}

func TestMCP_Products_LastPage(t *testing.T) {
	ts, _ := fakeAPI(t)
	session := mcpSession(t, ts)

	text := mcpCallTool(t, session, "cin7_products", map[string]any{"limit": 2, "cursor": "2"})
	var resp struct {
		Results []map[string]any `json:"results"`
		HasMore bool             `json:"has_more"`
		Cursor  *string          `json:"cursor"`
	}
	unmarshalInto(t, text, &resp)
	if len(resp.Results) != 1 || resp.HasMore || resp.Cursor != nil {
		t.Errorf("last page: results=%d has_more=%v cursor=%v", len(resp.Results), resp.HasMore, resp.Cursor)
	}
}

func TestMCP_Products_FieldsExtendDefaults(t *testing.T) {
	ts, _ := fakeAPI(t)
	session := mcpSession(t, ts)

	text := mcpCallTool(t, session, "cin7_products", map[string]any{"limit": 1, "fields": []string{"Brand"}})
	var resp struct {
		Results []map[string]any `json:"results"`
	}
	unmarshalInto(t, text, &resp)
	if resp.Results[0]["Brand"] != "Acme" {
		t.Errorf("Brand missing: %v", resp.Results[0])
	}
	if _, ok := resp.Results[0]["ID"]; ok {
		t.Error("ID was not requested and is not a default")
	}
}

func TestMCP_GetProduct(t *testing.T) {
	ts, _ := fakeAPI(t)
	session := mcpSession(t, ts)

	text := mcpCallTool(t, session, "cin7_get_product", map[string]any{"sku": "SKU-2"})
	var resp map[string]any
	unmarshalInto(t, text, &resp)
	if resp["ID"] == nil || resp["SKU"] == nil || resp["Name"] == nil {
		t.Errorf("default get projection: %v", resp)
	}
	if _, ok := resp["Brand"]; ok {
		t.Errorf("Brand should be projected out: %v", resp)
	}
}

// --- create product with supplier registration ---

func TestMCP_CreateProduct_RegistersSuppliers(t *testing.T) {
	// WHAT: a Suppliers array is stripped from the product payload and
	// sent to product-suppliers afterwards, with marker fields on the
	// result.
	ts, calls := fakeAPI(t)
	session := mcpSession(t, ts)

	text := mcpCallTool(t, session, "cin7_create_product", map[string]any{
		"payload": map[string]any{
			"SKU":  "SKU-9",
			"Name": "Delta",
			"Suppliers": []map[string]any{
				{"SupplierID": "s-1", "Cost": 4.5},
			},
		},
	})
	var resp map[string]any
	unmarshalInto(t, text, &resp)

	if resp["_suppliersRegistered"] != true {
		t.Errorf("_suppliersRegistered = %v", resp["_suppliersRegistered"])
	}
	if resp["_supplierCount"] != float64(1) {
		t.Errorf("_supplierCount = %v", resp["_supplierCount"])
	}
	if calls.count != 1 {
		t.Fatalf("product-suppliers calls: %d", calls.count)
	}
	products, _ := calls.payload["Products"].([]any)
	if len(products) != 1 {
		t.Fatalf("registered products: %v", calls.payload)
	}
	entry := products[0].(map[string]any)
	if entry["ProductID"] != "p-new" {
		t.Errorf("ProductID = %v", entry["ProductID"])
	}
}

func TestMCP_CreateProduct_NoSuppliers(t *testing.T) {
	ts, calls := fakeAPI(t)
	session := mcpSession(t, ts)

	text := mcpCallTool(t, session, "cin7_create_product", map[string]any{
		"payload": map[string]any{"SKU": "SKU-9", "Name": "Delta"},
	})
	var resp map[string]any
	unmarshalInto(t, text, &resp)
	if _, ok := resp["_suppliersRegistered"]; ok {
		t.Error("marker must be absent without a Suppliers array")
	}
	if calls.count != 0 {
		t.Errorf("product-suppliers calls: %d", calls.count)
	}
}

// --- stock aggregation ---

func TestMCP_GetStock_Totals(t *testing.T) {
	ts, _ := fakeAPI(t)
	session := mcpSession(t, ts)

	text := mcpCallTool(t, session, "cin7_get_stock", map[string]any{
		"sku":    "SKU-1",
		"fields": []string{"*"},
	})
	var resp struct {
		SKU            string           `json:"sku"`
		Locations      []map[string]any `json:"locations"`
		TotalOnHand    float64          `json:"total_on_hand"`
		TotalAvailable float64          `json:"total_available"`
	}
	unmarshalInto(t, text, &resp)

	if resp.SKU != "SKU-1" || len(resp.Locations) != 2 {
		t.Fatalf("stock: sku=%q locations=%d", resp.SKU, len(resp.Locations))
	}
	if resp.TotalOnHand != 10 || resp.TotalAvailable != 8 {
		t.Errorf("totals: on_hand=%v available=%v", resp.TotalOnHand, resp.TotalAvailable)
	}
}

// --- snapshot lifecycle over MCP ---

func snapshotWaitReady(t *testing.T, session *mcp.ClientSession, tool, id string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		text := mcpCallTool(t, session, tool, map[string]any{"snapshot_id": id})
		var status map[string]any
		unmarshalInto(t, text, &status)
		if status["ready"] == true || status["error"] != nil {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("snapshot never became ready")
	return nil
}

func TestMCP_ProductSnapshotLifecycle(t *testing.T) {
	ts, _ := fakeAPI(t)
	session := mcpSession(t, ts)

	// Start with limit 2: the build pages twice (2 items then 1).
	text := mcpCallTool(t, session, "cin7_products_snapshot_start", map[string]any{"limit": 2})
	var start struct {
		SnapshotID string `json:"snapshotId"`
		Ready      bool   `json:"ready"`
	}
	unmarshalInto(t, text, &start)
	if start.SnapshotID == "" {
		t.Fatal("missing snapshotId")
	}

	status := snapshotWaitReady(t, session, "cin7_products_snapshot_status", start.SnapshotID)
	if status["error"] != nil {
		t.Fatalf("build error: %v", status["error"])
	}
	if status["total"] != float64(3) {
		t.Fatalf("total = %v", status["total"])
	}

	// Chunk traversal in order.
	text = mcpCallTool(t, session, "cin7_products_snapshot_chunk", map[string]any{
		"snapshot_id": start.SnapshotID, "offset": 0, "limit": 2,
	})
	var chunk struct {
		Items      []map[string]any `json:"items"`
		NextOffset *int             `json:"nextOffset"`
	}
	unmarshalInto(t, text, &chunk)
	if len(chunk.Items) != 2 || chunk.NextOffset == nil || *chunk.NextOffset != 2 {
		t.Fatalf("first chunk: items=%d next=%v", len(chunk.Items), chunk.NextOffset)
	}
	if chunk.Items[0]["SKU"] != "SKU-1" || chunk.Items[1]["SKU"] != "SKU-2" {
		t.Errorf("chunk order: %v", chunk.Items)
	}

	text = mcpCallTool(t, session, "cin7_products_snapshot_chunk", map[string]any{
		"snapshot_id": start.SnapshotID, "offset": 2, "limit": 2,
	})
	unmarshalInto(t, text, &chunk)
	if len(chunk.Items) != 1 || chunk.NextOffset != nil {
		t.Fatalf("last chunk: items=%d next=%v", len(chunk.Items), chunk.NextOffset)
	}

	// Close, then the id is gone.
	text = mcpCallTool(t, session, "cin7_products_snapshot_close", map[string]any{"snapshot_id": start.SnapshotID})
	var closed struct {
		OK      bool `json:"ok"`
		Existed bool `json:"existed"`
	}
	unmarshalInto(t, text, &closed)
	if !closed.OK || !closed.Existed {
		t.Errorf("close: %+v", closed)
	}

	text = mcpCallTool(t, session, "cin7_products_snapshot_status", map[string]any{"snapshot_id": start.SnapshotID})
	var gone map[string]any
	unmarshalInto(t, text, &gone)
	if gone["error"] != "snapshot not found" {
		t.Errorf("status after close: %v", gone)
	}
}

func TestMCP_SnapshotStatusUnknown(t *testing.T) {
	ts, _ := fakeAPI(t)
	session := mcpSession(t, ts)

	text := mcpCallTool(t, session, "cin7_stock_snapshot_status", map[string]any{"snapshot_id": "nope"})
	var resp map[string]any
	unmarshalInto(t, text, &resp)
	if resp["error"] != "snapshot not found" {
		t.Errorf("unknown snapshot: %v", resp)
	}
}

func TestMCP_StockSnapshotLifecycle(t *testing.T) {
	ts, _ := fakeAPI(t)
	session := mcpSession(t, ts)

	text := mcpCallTool(t, session, "cin7_stock_snapshot_start", map[string]any{})
	var start struct {
		SnapshotID string `json:"snapshotId"`
	}
	unmarshalInto(t, text, &start)

	status := snapshotWaitReady(t, session, "cin7_stock_snapshot_status", start.SnapshotID)
	if status["error"] != nil {
		t.Fatalf("build error: %v", status["error"])
	}
	if status["total"] != float64(2) {
		t.Errorf("total = %v", status["total"])
	}
}

// --- resources and prompts ---

func TestMCP_ProductTemplateResource(t *testing.T) {
	ts, _ := fakeAPI(t)
	session := mcpSession(t, ts)

	result, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{
		URI: "cin7://templates/product",
	})
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("contents: %d", len(result.Contents))
	}
	var tmpl map[string]any
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &tmpl); err != nil {
		t.Fatalf("template is not JSON: %v", err)
	}
	for _, key := range []string{"SKU", "Name", "CostingMethod", "Suppliers"} {
		if _, ok := tmpl[key]; !ok {
			t.Errorf("template missing %q", key)
		}
	}
}

func TestMCP_ProductBySKUResource(t *testing.T) {
	ts, _ := fakeAPI(t)
	session := mcpSession(t, ts)

	result, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{
		URI: "cin7://templates/product/sku/SKU-3",
	})
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	var product map[string]any
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &product); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if product["SKU"] != "SKU-3" || product["Name"] != "Gamma" {
		t.Errorf("product: %v", product)
	}
}

func TestMCP_CreateProductPrompt(t *testing.T) {
	ts, _ := fakeAPI(t)
	session := mcpSession(t, ts)

	result, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name: "create_product",
	})
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if len(result.Messages) != 1 {
		t.Fatalf("messages: %d", len(result.Messages))
	}
	tc, ok := result.Messages[0].Content.(*mcp.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	if want := "cin7://templates/product"; !strings.Contains(tc.Text, want) {
		t.Errorf("prompt text missing %q", want)
	}
}
