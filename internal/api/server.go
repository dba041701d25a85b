package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pagewarden/pagewarden/internal/extract"
	"github.com/pagewarden/pagewarden/internal/model"
)

// AuditService is the pipeline surface the server depends on. Satisfied by
// pipeline.Pipeline.
type AuditService interface {
	AuditHTML(ctx context.Context, htmlText string, mode extract.Mode) *model.AnalysisResult
	AuditURL(ctx context.Context, url string, mode extract.Mode) (*model.AnalysisResult, error)
}

// Server is the HTTP API server for pagewarden.
type Server struct {
	router  chi.Router
	audits  AuditService
	metrics *Metrics
	log     *slog.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(audits AuditService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		audits:  audits,
		metrics: NewMetrics(),
		log:     log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))

	r.Post("/api/audit/html", s.handleAuditHTML)
	r.Post("/api/audit/url", s.handleAuditURL)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type auditHTMLRequest struct {
	HTML string `json:"html"`
	Mode string `json:"mode,omitempty"`
}

type auditURLRequest struct {
	URL  string `json:"url"`
	Mode string `json:"mode,omitempty"`
}

func (s *Server) handleAuditHTML(w http.ResponseWriter, r *http.Request) {
	var req auditHTMLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.HTML == "" {
		http.Error(w, `{"error":"html is required"}`, http.StatusBadRequest)
		return
	}

	mode := extract.ParseMode(req.Mode)
	result := s.audits.AuditHTML(r.Context(), req.HTML, mode)
	s.recordAudit("html", mode, result)
	s.respond(w, r, result)
}

func (s *Server) handleAuditURL(w http.ResponseWriter, r *http.Request) {
	var req auditURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, `{"error":"url is required"}`, http.StatusBadRequest)
		return
	}

	mode := extract.ParseMode(req.Mode)
	result, err := s.audits.AuditURL(r.Context(), req.URL, mode)
	if err != nil {
		s.metrics.AuditsTotal.WithLabelValues("url", string(mode), "fetch_error").Inc()
		s.log.Warn("audit fetch failed", "url", req.URL, "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	s.recordAudit("url", mode, result)
	s.respond(w, r, result)
}

func (s *Server) recordAudit(kind string, mode extract.Mode, result *model.AnalysisResult) {
	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}
	s.metrics.AuditsTotal.WithLabelValues(kind, string(mode), outcome).Inc()
	s.metrics.AuditDuration.WithLabelValues(string(mode)).Observe(result.ProcessingTime)
	s.metrics.ViolationsFound.Add(float64(result.UniqueViolations))
	if result.Debug != nil {
		s.metrics.FailedAudits.Add(float64(result.Debug.FailedAudits))
	}
}

// respond writes the result; the debug package is stripped unless the
// caller asked for it.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, result *model.AnalysisResult) {
	if r.URL.Query().Get("debug") != "true" {
		trimmed := *result
		trimmed.Debug = nil
		result = &trimmed
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
