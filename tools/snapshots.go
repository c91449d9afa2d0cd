package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tzenderman/mcp-cin7-core/snapshot"
)

var snapshotNotFound = map[string]any{"error": "snapshot not found"}

// snapshotToolSet registers the four lifecycle tools (start, status,
// chunk, close) for one snapshot service. Both the product and the
// stock variants share everything but the start parameters.
type snapshotToolSet struct {
	server       *Server
	svc          *snapshot.Service
	prefix       string // cin7_products_snapshot / cin7_stock_snapshot
	defaultLimit int
	startSchema  map[string]any
	startDecode  func(json.RawMessage) (snapshot.StartParams, error)
	startDoc     string
}

func (s *Server) registerProductSnapshots(srv *mcp.Server) {
	set := &snapshotToolSet{
		server:       s,
		svc:          s.products,
		prefix:       "cin7_products_snapshot",
		defaultLimit: 100,
		startDoc: "Start a server-side snapshot build of products. Returns a snapshotId for " +
			"chunking, status checks and close. Applies default projection (SKU, Name) plus any " +
			"requested fields.",
		startSchema: map[string]any{
			"page":   map[string]any{"type": "integer", "description": "Starting page (1-based)"},
			"limit":  map[string]any{"type": "integer", "description": "Items per page during build"},
			"name":   map[string]any{"type": "string", "description": "Name filter"},
			"sku":    map[string]any{"type": "string", "description": "SKU filter"},
			"fields": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Extra fields beyond defaults"},
		},
		startDecode: func(raw json.RawMessage) (snapshot.StartParams, error) {
			var p struct {
				Page   int      `json:"page"`
				Limit  int      `json:"limit"`
				Name   string   `json:"name"`
				SKU    string   `json:"sku"`
				Fields []string `json:"fields"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return snapshot.StartParams{}, err
			}
			filters := map[string]string{}
			if p.Name != "" {
				filters["name"] = p.Name
			}
			if p.SKU != "" {
				filters["sku"] = p.SKU
			}
			return snapshot.StartParams{Page: p.Page, Limit: p.Limit, Filters: filters, Fields: p.Fields}, nil
		},
	}
	set.register(srv)
}

func (s *Server) registerStockSnapshots(srv *mcp.Server) {
	set := &snapshotToolSet{
		server:       s,
		svc:          s.stock,
		prefix:       "cin7_stock_snapshot",
		defaultLimit: 1000,
		startDoc: "Start a server-side snapshot build of stock availability. Returns a snapshotId " +
			"for chunking, status checks and close. Applies default projection (SKU, Location, " +
			"OnHand, Available) plus any requested fields.",
		startSchema: map[string]any{
			"page":     map[string]any{"type": "integer", "description": "Starting page (1-based)"},
			"limit":    map[string]any{"type": "integer", "description": "Items per page during build (max 1000)"},
			"location": map[string]any{"type": "string", "description": "Location name filter"},
			"fields":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Extra fields beyond defaults"},
		},
		startDecode: func(raw json.RawMessage) (snapshot.StartParams, error) {
			var p struct {
				Page     int      `json:"page"`
				Limit    int      `json:"limit"`
				Location string   `json:"location"`
				Fields   []string `json:"fields"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				return snapshot.StartParams{}, err
			}
			filters := map[string]string{}
			if p.Location != "" {
				filters["location"] = p.Location
			}
			return snapshot.StartParams{Page: p.Page, Limit: p.Limit, Filters: filters, Fields: p.Fields}, nil
		},
	}
	set.register(srv)
}

func (t *snapshotToolSet) register(srv *mcp.Server) {
	t.registerStart(srv)
	t.registerStatus(srv)
	t.registerChunk(srv)
	t.registerClose(srv)
}

func (t *snapshotToolSet) registerStart(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        t.prefix + "_start",
		Description: t.startDoc,
		InputSchema: inputSchema(t.startSchema, nil),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		params := r.(snapshot.StartParams)
		if params.Limit <= 0 {
			params.Limit = t.defaultLimit
		}
		if params.Page <= 0 {
			params.Page = 1
		}
		return t.svc.Start(params), nil
	}

	decode := func(r *mcp.CallToolRequest) (any, error) {
		return t.startDecode(r.Params.Arguments)
	}

	t.server.register(srv, tool, endpoint, decode)
}

func (t *snapshotToolSet) registerStatus(srv *mcp.Server) {
	type req struct {
		SnapshotID string `json:"snapshot_id"`
	}

	tool := &mcp.Tool{
		Name:        t.prefix + "_status",
		Description: "Get status and metadata for a running or completed snapshot",
		InputSchema: inputSchema(map[string]any{
			"snapshot_id": map[string]any{"type": "string", "description": "Snapshot ID from a start call"},
		}, []string{"snapshot_id"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		status, ok := t.svc.Status(p.SnapshotID)
		if !ok {
			return snapshotNotFound, nil
		}
		return status, nil
	}

	decode := func(r *mcp.CallToolRequest) (any, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	t.server.register(srv, tool, endpoint, decode)
}

func (t *snapshotToolSet) registerChunk(srv *mcp.Server) {
	type req struct {
		SnapshotID string `json:"snapshot_id"`
		Offset     int    `json:"offset"`
		Limit      *int   `json:"limit"`
	}

	tool := &mcp.Tool{
		Name: t.prefix + "_chunk",
		Description: "Fetch a slice of items from a built or building snapshot. While the build is " +
			"still running this returns whatever is available so far.",
		InputSchema: inputSchema(map[string]any{
			"snapshot_id": map[string]any{"type": "string", "description": "Snapshot ID from a start call"},
			"offset":      map[string]any{"type": "integer", "description": "Slice start offset"},
			"limit":       map[string]any{"type": "integer", "description": "Maximum items to return"},
		}, []string{"snapshot_id"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		limit := 100
		if p.Limit != nil {
			limit = *p.Limit
		}
		chunk, ok := t.svc.Chunk(p.SnapshotID, p.Offset, limit)
		if !ok {
			return snapshotNotFound, nil
		}
		return chunk, nil
	}

	decode := func(r *mcp.CallToolRequest) (any, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	t.server.register(srv, tool, endpoint, decode)
}

func (t *snapshotToolSet) registerClose(srv *mcp.Server) {
	type req struct {
		SnapshotID string `json:"snapshot_id"`
	}

	tool := &mcp.Tool{
		Name:        t.prefix + "_close",
		Description: "Close and clean up a snapshot, cancelling work if still running",
		InputSchema: inputSchema(map[string]any{
			"snapshot_id": map[string]any{"type": "string", "description": "Snapshot ID from a start call"},
		}, []string{"snapshot_id"}),
	}

	endpoint := func(_ context.Context, r any) (any, error) {
		p := r.(*req)
		return t.svc.Close(p.SnapshotID), nil
	}

	decode := func(r *mcp.CallToolRequest) (any, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	t.server.register(srv, tool, endpoint, decode)
}
