// Package server exposes metric derivation over HTTP. It is stateless: every
// request carries the pull request records it wants measured.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/boshu2/prmetrics/internal/cycletime"
	"github.com/boshu2/prmetrics/internal/parser"
	"github.com/boshu2/prmetrics/internal/report"
)

// Error codes returned in the error envelope.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeInvalidRecord = "INVALID_RECORD"
	CodeTooLarge      = "PAYLOAD_TOO_LARGE"
)

const defaultMaxBodyBytes = 10 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// MetricsResponse is returned by POST /v1/metrics.
type MetricsResponse struct {
	Checksum     string                 `json:"checksum"`
	PullRequests []cycletime.KeyMetrics `json:"pull_requests"`
}

// Options configures a Handler.
type Options struct {
	Calendar cycletime.Calendar
	// Workers is the derivation concurrency. 0 means one per CPU.
	Workers int
	// MaxBodyBytes caps a request body. 0 means 10 MiB.
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// Handler serves the metrics API.
type Handler struct {
	cal     cycletime.Calendar
	workers int
	maxBody int64
	r       *chi.Mux
	logger  *slog.Logger
}

// NewHandler builds the router and its middleware.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cal := opts.Calendar
	if cal.Location == nil {
		cal = cycletime.UTC
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	h := &Handler{
		cal:     cal,
		workers: opts.Workers,
		maxBody: maxBody,
		r:       chi.NewRouter(),
		logger:  logger,
	}
	h.routes()
	return h
}

// Router returns the HTTP handler.
func (h *Handler) Router() http.Handler { return h.r }

func (h *Handler) routes() {
	h.r.Use(middleware.RequestID)
	h.r.Use(middleware.RealIP)
	h.r.Use(middleware.Logger)
	h.r.Use(middleware.Recoverer)

	h.r.Get("/healthz", h.health)
	h.r.Route("/v1", func(r chi.Router) {
		r.Post("/metrics", h.metrics)
		r.Post("/report", h.report)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, code, message string, statusCode int) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	h.writeJSON(w, resp, statusCode)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	result, ok := h.readRecords(w, r)
	if !ok {
		return
	}

	rows := report.DeriveAll(h.cal, result.PullRequests, h.workers)
	h.logger.Info("metrics derived",
		"request_id", middleware.GetReqID(r.Context()),
		"pull_requests", len(rows),
		"checksum", result.Checksum)
	h.writeJSON(w, MetricsResponse{Checksum: result.Checksum, PullRequests: rows}, http.StatusOK)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	limit := report.DefaultRankLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, CodeBadRequest, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	result, ok := h.readRecords(w, r)
	if !ok {
		return
	}

	rows := report.DeriveAll(h.cal, result.PullRequests, h.workers)
	rep := report.Build(rows, report.Options{RankLimit: limit})
	h.logger.Info("report built",
		"request_id", middleware.GetReqID(r.Context()),
		"run_id", rep.RunID,
		"pull_requests", rep.PullRequests,
		"checksum", result.Checksum)
	h.writeJSON(w, rep, http.StatusOK)
}

// readRecords decodes the request body strictly: any malformed record fails
// the whole request. It writes the error response itself and reports false.
func (h *Handler) readRecords(w http.ResponseWriter, r *http.Request) (*parser.ParseResult, bool) {
	format, err := parser.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, CodeBadRequest, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, CodeTooLarge, fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		h.logger.Warn("failed to read request body", "error", err)
		h.writeError(w, CodeBadRequest, "failed to read body", http.StatusBadRequest)
		return nil, false
	}

	p := &parser.Parser{Format: format, SkipMalformed: false}
	result, err := p.ParseBytes(data)
	if err != nil {
		h.logger.Warn("invalid request body", "error", err)
		h.writeError(w, CodeBadRequest, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if len(result.Errors) > 0 {
		h.logger.Warn("invalid pull request record",
			"malformed", result.MalformedRecords,
			"error", result.Errors[0])
		h.writeError(w, CodeInvalidRecord, result.Errors[0].Error(), http.StatusBadRequest)
		return nil, false
	}
	return result, true
}
