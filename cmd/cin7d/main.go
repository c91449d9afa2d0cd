// CLAUDE:SUMMARY Entry point for the Cin7 Core MCP server — stdio or streamable HTTP transport, chi router, bearer/JWT auth.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tzenderman/mcp-cin7-core/auth"
	"github.com/tzenderman/mcp-cin7-core/cin7"
	"github.com/tzenderman/mcp-cin7-core/config"
	"github.com/tzenderman/mcp-cin7-core/snapshot"
	"github.com/tzenderman/mcp-cin7-core/tools"
)

var serverImpl = &mcp.Implementation{
	Name:    "cin7-core",
	Version: "1.0.0",
}

func main() {
	cfg, err := config.Load(env("CIN7_CONFIG", ""))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging. MCP stdio owns stdout, so logs always go to stderr.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Upstream client.
	clientOpts := []cin7.Option{cin7.WithLogger(logger)}
	if cfg.Cin7.BaseURL != "" {
		clientOpts = append(clientOpts, cin7.WithBaseURL(cfg.Cin7.BaseURL))
	}
	client := cin7.New(cfg.Cin7.AccountID, cfg.Cin7.ApplicationKey, clientOpts...)

	toolServer := tools.New(client,
		tools.WithLogger(logger),
		tools.WithSnapshotOptions(
			snapshot.WithTTL(cfg.Snapshot.TTL),
			snapshot.WithMaxItems(cfg.Snapshot.MaxItems),
		),
	)

	newServer := func() *mcp.Server {
		srv := mcp.NewServer(serverImpl, nil)
		toolServer.RegisterMCP(srv)
		return srv
	}

	switch cfg.Server.Transport {
	case "http":
		runHTTP(ctx, cfg, newServer)
	default:
		slog.Info("starting stdio transport")
		if err := newServer().Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("stdio transport", "error", err)
			os.Exit(1)
		}
	}
}

func runHTTP(ctx context.Context, cfg *config.Config, newServer func() *mcp.Server) {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return newServer()
	}, nil)

	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Use(auth.Middleware(auth.Config{
		Mode:          cfg.Auth.Mode,
		BearerToken:   cfg.Auth.BearerToken,
		JWTSecret:     []byte(cfg.Auth.JWTSecret),
		AllowedEmails: cfg.Auth.AllowedEmails,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})
	r.Handle("/mcp", handler)
	r.Handle("/mcp/*", handler)

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Server.HTTPAddr, "auth_mode", cfg.Auth.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// corsMiddleware is deliberately permissive: the MCP session header has
// to be readable by browser-based clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Mcp-Session-Id, Mcp-Protocol-Version")
		w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
