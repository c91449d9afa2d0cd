// CLAUDE:SUMMARY Registers all Cin7 Core MCP tools, template resources and workflow prompts on an MCP server.
// Package tools exposes the Cin7 Core surface to MCP clients: account,
// product, supplier, sale, purchase order and stock tools, plus the
// snapshot tools backed by two in-memory snapshot services.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tzenderman/mcp-cin7-core/cin7"
	"github.com/tzenderman/mcp-cin7-core/kit"
	"github.com/tzenderman/mcp-cin7-core/project"
	"github.com/tzenderman/mcp-cin7-core/snapshot"
)

// Server holds the upstream client and the per-kind snapshot services
// behind the registered tools.
type Server struct {
	client   *cin7.Client
	products *snapshot.Service
	stock    *snapshot.Service
	snapOpts []snapshot.Option
	log      *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for tool call tracing.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithSnapshotOptions applies the given options to both snapshot
// services (TTL, item cap).
func WithSnapshotOptions(opts ...snapshot.Option) Option {
	return func(s *Server) {
		s.snapOpts = append(s.snapOpts, opts...)
	}
}

// New builds a Server around the given client. The products snapshot
// service pages at the requested limit; the stock service clamps pages
// to the upstream availability maximum of 1000.
func New(client *cin7.Client, opts ...Option) *Server {
	s := &Server{
		client: client,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	productProject := func(items []map[string]any, fields []string) []map[string]any {
		return project.Items(items, fields, []string{"SKU", "Name"})
	}
	stockProject := func(items []map[string]any, fields []string) []map[string]any {
		return project.Items(items, fields, []string{"SKU", "Location", "OnHand", "Available"})
	}

	s.products = snapshot.New(client.ProductPages(), productProject,
		append([]snapshot.Option{snapshot.WithLogger(s.log)}, s.snapOpts...)...)
	s.stock = snapshot.New(client.StockPages(), stockProject,
		append([]snapshot.Option{snapshot.WithLogger(s.log), snapshot.WithPageSizeCap(1000)}, s.snapOpts...)...)
	return s
}

// RegisterMCP registers every tool, resource and prompt on the server.
func (s *Server) RegisterMCP(srv *mcp.Server) {
	s.registerStatus(srv)
	s.registerMe(srv)

	s.registerProducts(srv)
	s.registerGetProduct(srv)
	s.registerCreateProduct(srv)
	s.registerUpdateProduct(srv)

	s.registerSuppliers(srv)
	s.registerGetSupplier(srv)
	s.registerCreateSupplier(srv)
	s.registerUpdateSupplier(srv)

	s.registerSales(srv)
	s.registerGetSale(srv)
	s.registerCreateSale(srv)
	s.registerUpdateSale(srv)

	s.registerPurchaseOrders(srv)
	s.registerGetPurchaseOrder(srv)
	s.registerCreatePurchaseOrder(srv)

	s.registerStockLevels(srv)
	s.registerGetStock(srv)
	s.registerStockTransfers(srv)
	s.registerGetStockTransfer(srv)

	s.registerProductSnapshots(srv)
	s.registerStockSnapshots(srv)

	s.registerTemplates(srv)
	s.registerPrompts(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// instrument traces calls at debug level before and after the endpoint.
func (s *Server) instrument(name string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			s.log.Debug("tool call", "tool", name)
			resp, err := next(ctx, req)
			if err != nil {
				s.log.Debug("tool failed", "tool", name, "error", err)
			}
			return resp, err
		}
	}
}

func (s *Server) register(srv *mcp.Server, tool *mcp.Tool, endpoint kit.Endpoint, decode func(*mcp.CallToolRequest) (any, error)) {
	kit.RegisterMCPTool(srv, tool, kit.Chain(s.instrument(tool.Name))(endpoint), decode)
}

// pageFromCursor turns an opaque list cursor back into a 1-based page.
func pageFromCursor(cursor string) (int, error) {
	if cursor == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(cursor)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("invalid cursor %q", cursor)
	}
	return page, nil
}

// listResult wraps one upstream page in the shared list shape. has_more
// is derived from the upstream Total when present.
func listResult(items []map[string]any, page, limit, total int) map[string]any {
	hasMore := page*limit < total
	var cursor any
	if hasMore {
		cursor = strconv.Itoa(page + 1)
	}
	if items == nil {
		items = []map[string]any{}
	}
	return map[string]any{
		"results":        items,
		"has_more":       hasMore,
		"cursor":         cursor,
		"total_returned": len(items),
	}
}

// pageOf pulls the record list and total out of a raw list response.
func pageOf(raw map[string]any, key string) ([]map[string]any, int) {
	var items []map[string]any
	if list, ok := raw[key].([]any); ok {
		for _, it := range list {
			if m, ok := it.(map[string]any); ok {
				items = append(items, m)
			}
		}
	}
	total := len(items)
	if t, ok := raw["Total"].(float64); ok {
		total = int(t)
	}
	return items, total
}
