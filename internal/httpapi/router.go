// Package httpapi exposes the verification engine over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/optimode/mailprobe"
)

// Version is reported by the index endpoint.
const Version = "1.0.0"

// maxBodyBytes bounds the verify request body.
const maxBodyBytes = 64 << 10

// Verifier is the engine operation the API needs.
type Verifier interface {
	Verify(ctx context.Context, addresses []string) ([]mailprobe.Result, error)
}

// Handler serves the verification API.
type Handler struct {
	verifier Verifier
	log      logrus.FieldLogger
	gatherer prometheus.Gatherer
}

// NewHandler creates a Handler. gatherer may be nil, in which case
// /metrics is not served.
func NewHandler(v Verifier, log logrus.FieldLogger, gatherer prometheus.Gatherer) *Handler {
	return &Handler{verifier: v, log: log, gatherer: gatherer}
}

// Router returns the chi router with all routes and middleware.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/", h.handleIndex)
	r.Get("/api/health", h.handleHealth)
	r.Post("/api/verify", h.handleVerify)
	if h.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

type verifyRequest struct {
	Emails []string `json:"emails"`
}

type verifyResponse struct {
	Success bool               `json:"success"`
	Results []mailprobe.Result `json:"results"`
	mailprobe.Summary
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
		return
	}

	emails := make([]string, 0, len(req.Emails))
	for _, e := range req.Emails {
		if e = strings.TrimSpace(e); e != "" {
			emails = append(emails, e)
		}
	}
	if len(emails) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No emails provided"})
		return
	}
	if len(emails) > mailprobe.MaxBatchSize {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Too many emails (max 20)"})
		return
	}

	results, err := h.verifier.Verify(r.Context(), emails)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, mailprobe.ErrEmptyBatch) || errors.Is(err, mailprobe.ErrBatchTooLarge) {
			status = http.StatusBadRequest
		}
		h.log.WithError(err).WithField("request_id", middleware.GetReqID(r.Context())).Error("verify failed")
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Success: true,
		Results: results,
		Summary: mailprobe.Summarize(results),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, mailprobe.Health())
}

func (h *Handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "Email Verification API",
		"version": Version,
		"endpoints": map[string]string{
			"POST /api/verify": "Verify up to 20 email addresses",
			"GET /api/health":  "Health check",
			"GET /metrics":     "Prometheus metrics",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one entry per request after it completes.
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			}).Info("request")
		})
	}
}

// cors allows any origin, as the browser frontend is served separately.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Request-Id")
		h.Set("Access-Control-Max-Age", "3600")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
