package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/DavidRHerbert/webex-mcp/internal/audit"
	"github.com/DavidRHerbert/webex-mcp/internal/docs"
	"github.com/DavidRHerbert/webex-mcp/internal/liveness"
	webexmcp "github.com/DavidRHerbert/webex-mcp/internal/mcp"
	"github.com/DavidRHerbert/webex-mcp/internal/mcpconfig"
	"github.com/DavidRHerbert/webex-mcp/internal/observability"
	"github.com/DavidRHerbert/webex-mcp/internal/profiles"
	"github.com/DavidRHerbert/webex-mcp/internal/ui"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "webex-mcp"

// Version is reported by the health endpoint and the config MCP server.
const Version = "0.3.0"

// Surface is the metrics surface for requests handled here.
const Surface = "api"

// Config holds server configuration.
type Config struct {
	Bind      string
	DataDir   string
	AuthToken string
	// StaticDir holds the compiled UI copied by build-static. When it has
	// no index.html the embedded UI is served.
	StaticDir string
	// ChatUpstream is the chat backend base URL. Empty disables the
	// /api/chat and /mcp proxy.
	ChatUpstream string
}

// Server is the HTTP front end: config generation, profiles, docs and the UI.
type Server struct {
	config    Config
	profiles  *profiles.Store
	metrics   *observability.Store
	audit     *audit.Log
	upstream  http.Handler
	monitor   *liveness.Monitor
	mcpTools  http.Handler
	startTime time.Time
	logger    *slog.Logger
}

// New creates a new Server. metrics may be nil.
func New(cfg Config, profileStore *profiles.Store, metrics *observability.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		config:    cfg,
		profiles:  profileStore,
		metrics:   metrics,
		startTime: time.Now(),
		logger:    logger,
	}
	s.mcpTools = webexmcp.New(profileStore, Version, requestOrigin)
	if cfg.ChatUpstream != "" {
		proxy, err := s.newUpstreamProxy(cfg.ChatUpstream)
		if err != nil {
			return nil, err
		}
		s.upstream = proxy
	}
	return s, nil
}

// SetMonitor reports chat backend reachability on /health.
func (s *Server) SetMonitor(m *liveness.Monitor) {
	s.monitor = m
}

// SetAudit enables the profile change history.
func (s *Server) SetAudit(l *audit.Log) {
	s.audit = l
}

// record appends an audit entry when auditing is enabled.
func (s *Server) record(r *http.Request, action, resource string, detail map[string]any) {
	if s.audit == nil {
		return
	}
	actor := "api:" + r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		actor = "api:" + host
	}
	d := ""
	if detail != nil {
		d = audit.DetailJSON(detail)
	}
	if err := s.audit.Append(r.Context(), actor, action, resource, d, ""); err != nil {
		s.logger.Warn("audit append failed", "action", action, "error", err)
	}
}

// count records a usage metric. Failures are logged, never surfaced.
func (s *Server) count(ctx context.Context, name string) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.Increment(ctx, Surface, name); err != nil {
		s.logger.Warn("metric increment failed", "metric", name, "error", err)
	}
}

// staticDirReady reports whether StaticDir holds a compiled UI.
func (s *Server) staticDirReady() bool {
	if s.config.StaticDir == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(s.config.StaticDir, "index.html"))
	return err == nil && !info.IsDir()
}

// Handler returns the root HTTP handler with all routes and auth middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/config", s.handleConfig)
	mux.HandleFunc("GET /api/docs", s.handleDocs)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/profiles", s.handleProfilesList)
	mux.HandleFunc("GET /api/profiles/{name}", s.handleProfileGet)
	mux.HandleFunc("PUT /api/profiles/{name}", s.handleProfilePut)
	mux.HandleFunc("DELETE /api/profiles/{name}", s.handleProfileDelete)
	mux.HandleFunc("GET /api/profiles/{name}/config", s.handleProfileConfig)
	mux.HandleFunc("GET /api/audit", s.handleAudit)

	if s.upstream != nil {
		mux.Handle("POST /api/chat", s.upstream)
	}

	// Outer mux: health, UI and the MCP proxy are public; /api/ and /mcp-config go through auth.
	// MCP clients authenticate to the upstream with their own Webex token.
	outer := http.NewServeMux()
	outer.HandleFunc("GET /health", s.handleHealth)
	outer.Handle("/api/", authMiddleware(s.config.AuthToken, mux))
	outer.Handle("/mcp-config", authMiddleware(s.config.AuthToken, s.mcpTools))
	if s.upstream != nil {
		outer.Handle("/mcp", s.upstream)
	}
	outer.Handle("/", s.uiHandler())

	return outer
}

func (s *Server) uiHandler() http.Handler {
	if s.staticDirReady() {
		return http.FileServer(http.Dir(s.config.StaticDir))
	}
	return ui.Handler()
}

// ListenAndServe starts the server. It blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.config.Bind,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		// Proxied chat requests can run as long as the backend's LLM loop.
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "bind", s.config.Bind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	static := "embedded"
	if s.staticDirReady() {
		static = s.config.StaticDir
	}
	resp := map[string]any{
		"status":  "ok",
		"service": ServiceName,
		"version": Version,
		"uptime":  time.Since(s.startTime).Truncate(time.Second).String(),
		"static":  static,
	}
	if s.monitor != nil {
		resp["upstream"] = s.monitor.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Config generation ---

type configRequest struct {
	Kind     string             `json:"kind"`
	Settings mcpconfig.Settings `json:"settings"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := profiles.Profile{Kind: profiles.ParseKind(req.Kind), Settings: req.Settings}
	cfg := p.Config(requestOrigin(r))

	s.count(r.Context(), observability.MetricConfigGenerated)
	s.logger.Debug("config generated", "kind", p.Kind, "transport", mcpconfig.ParseTransport(string(req.Settings.Transport)))
	writeJSON(w, http.StatusOK, cfg)
}

// --- Docs ---

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tools": docs.Tools,
	})
}

// --- Metrics ---

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"uptime":   time.Since(s.startTime).Truncate(time.Second).String(),
		"bind":     s.config.Bind,
		"upstream": s.config.ChatUpstream != "",
	}

	if items, err := s.profiles.List(r.Context()); err == nil {
		resp["profiles"] = len(items)
	}

	usage := []observability.Summary{}
	if s.metrics != nil {
		summary, err := s.metrics.Summarize(r.Context(), r.URL.Query().Get("period"))
		if err != nil {
			s.logger.Error("metrics summarize failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to summarize metrics")
			return
		}
		usage = summary
	}
	resp["usage"] = usage

	writeJSON(w, http.StatusOK, resp)
}

// --- Profiles ---

func (s *Server) handleProfilesList(w http.ResponseWriter, r *http.Request) {
	items, err := s.profiles.List(r.Context())
	if err != nil {
		s.logger.Error("profile list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}
	if items == nil {
		items = []profiles.Summary{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	p, err := s.profiles.Get(r.Context(), name)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "profile not found: "+name)
		return
	}
	if err != nil {
		s.logger.Error("profile get failed", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProfilePut(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req configRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.profiles.Put(r.Context(), name, profiles.ParseKind(req.Kind), req.Settings)
	if err != nil {
		s.logger.Error("profile put failed", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	s.count(r.Context(), observability.MetricProfileSaved)
	s.record(r, audit.ActionProfileSave, p.Name, map[string]any{"kind": p.Kind, "version": p.Version})
	s.logger.Info("profile saved", "name", p.Name, "kind", p.Kind, "version", p.Version)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProfileDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	err := s.profiles.Delete(r.Context(), name)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "profile not found: "+name)
		return
	}
	if err != nil {
		s.logger.Error("profile delete failed", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete profile")
		return
	}

	s.record(r, audit.ActionProfileDelete, name, nil)
	s.logger.Info("profile deleted", "name", name)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": name})
}

func (s *Server) handleProfileConfig(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	p, err := s.profiles.Get(r.Context(), name)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "profile not found: "+name)
		return
	}
	if err != nil {
		s.logger.Error("profile get failed", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load profile %s", name))
		return
	}

	s.count(r.Context(), observability.MetricConfigGenerated)
	writeJSON(w, http.StatusOK, p.Config(requestOrigin(r)))
}

// --- Audit ---

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeJSON(w, http.StatusOK, []audit.Entry{})
		return
	}

	q := r.URL.Query()
	f := audit.Filter{
		Actor:    q.Get("actor"),
		Action:   q.Get("action"),
		Resource: q.Get("resource"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = n
	}

	entries, err := s.audit.Query(r.Context(), f)
	if err != nil {
		s.logger.Error("audit query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to query audit log")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
