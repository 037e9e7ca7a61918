// CLAUDE:SUMMARY Entry point for the plume MCP service: stdio MCP server plus a chi admin/health HTTP sidecar.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/plume/audit"
	"github.com/hazyhaar/plume/dbopen"
	"github.com/hazyhaar/plume/kit"
	"github.com/hazyhaar/plume/platform"
	"github.com/hazyhaar/plume/session"
)

const version = "0.3.0"

func main() {
	cfg := DefaultConfig()
	if path := env("PLUME_CONFIG", ""); path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			slog.Error("load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Logging goes to stderr: stdout belongs to the MCP stdio transport.
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

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Audit DB.
	auditDB, err := dbopen.Open(cfg.AuditDB, dbopen.WithMkdirAll(), dbopen.WithSchema(audit.Schema))
	if err != nil {
		slog.Error("audit db", "error", err)
		os.Exit(1)
	}
	defer auditDB.Close()
	auditor := audit.NewLogger(auditDB, 1000)
	defer auditor.Close()

	// Platform client, when configured.
	var client platform.Client
	if cfg.Platform.BaseURL != "" {
		client = platform.NewHTTPClient(cfg.Platform.BaseURL, cfg.Platform.Token)
	}

	// Session store.
	store := session.NewStore(session.Config{
		MaxSessions: cfg.Sessions.Max,
		MaxIdle:     cfg.Sessions.MaxIdle,
		SweepEvery:  cfg.Sessions.SweepEvery,
		Logger:      logger,
	})
	defer store.Shutdown()

	var policy kit.PolicyFunc
	if len(cfg.Roles) > 0 {
		policy = kit.RolePolicy(cfg.Roles)
	}

	// MCP server over stdio.
	mcpSrv := mcp.NewServer(&mcp.Implementation{Name: "plume", Version: version}, nil)
	store.RegisterMCP(mcpSrv, session.MCPOptions{
		Policy:   policy,
		Audit:    auditor,
		Platform: client,
		ReadOnly: cfg.ReadOnly,
	})

	// Admin/health HTTP sidecar.
	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           adminRouter(store, auditor),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("admin http listening", "addr", cfg.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("admin http", "error", err)
		}
	}()

	slog.Info("plume mcp server starting", "version", version, "read_only", cfg.ReadOnly)
	if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("mcp server", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("admin http shutdown", "error", err)
	}
	slog.Info("plume stopped")
}

// adminRouter exposes read-only operational endpoints next to the MCP
// transport: liveness, live session summaries and audit queries.
func adminRouter(store *session.Store, auditor *audit.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version})
	})

	r.Get("/api/sessions", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, store.List())
	})

	r.Get("/api/audit", func(w http.ResponseWriter, req *http.Request) {
		f := &audit.Filter{
			Limit:  queryInt(req, "limit", 100),
			Offset: queryInt(req, "offset", 0),
		}
		if v := req.URL.Query().Get("tool"); v != "" {
			f.ToolName = &v
		}
		if v := req.URL.Query().Get("session"); v != "" {
			f.Session = &v
		}
		if v := req.URL.Query().Get("status"); v != "" {
			f.Status = &v
		}
		entries, err := auditor.Query(req.Context(), f)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	})

	return r
}

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

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
