// Package api exposes the publish endpoint, the admin review queue and the
// health probes over HTTP.
package api

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/p-n-ai/pai-courses/internal/course"
	"github.com/p-n-ai/pai-courses/internal/quality"
	"github.com/p-n-ai/pai-courses/internal/review"
)

const (
	maxBodyBytes = 1 << 20
	checkTimeout = 2 * time.Second
	xlsxType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Checker is a dependency probed by /readyz.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds the handlers' dependencies.
type Config struct {
	Publisher  *course.Publisher
	Feed       http.Handler       // optional websocket review feed
	Checks     map[string]Checker // probed by /readyz
	AdminToken string             // empty leaves /api/admin open
}

type handler struct {
	publisher *course.Publisher
	checks    map[string]Checker
}

// NewMux creates the HTTP router.
func NewMux(cfg Config) *http.ServeMux {
	h := &handler{publisher: cfg.Publisher, checks: cfg.Checks}
	admin := requireToken(cfg.AdminToken)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", h.handleReadyz)

	mux.HandleFunc("POST /api/courses", h.handlePublish)
	mux.HandleFunc("PUT /api/instructors/{id}/profile", h.handleSaveProfile)

	mux.Handle("GET /api/admin/review-queue", admin(http.HandlerFunc(h.handleQueue)))
	mux.Handle("GET /api/admin/review-queue.xlsx", admin(http.HandlerFunc(h.handleQueueExport)))
	mux.Handle("POST /api/admin/courses/{id}/decision", admin(http.HandlerFunc(h.handleDecision)))
	if cfg.Feed != nil {
		mux.Handle("GET /api/admin/review-queue/feed", admin(cfg.Feed))
	}
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *handler) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	var failed map[string]string
	for name, c := range h.checks {
		if err := c.HealthCheck(ctx); err != nil {
			if failed == nil {
				failed = make(map[string]string)
			}
			failed[name] = err.Error()
			slog.Warn("readiness check failed", "check", name, "error", err)
		}
	}

	if failed != nil {
		writeJSON(w, http.StatusServiceUnavailable, readiness{Status: "unavailable", Checks: failed})
		return
	}
	writeJSON(w, http.StatusOK, readiness{Status: "ready"})
}

func (h *handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	c, err := h.publisher.Publish(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *handler) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var p quality.Profile
	if !decodeBody(w, r, &p) {
		return
	}
	if err := h.publisher.SaveProfile(r.Context(), r.PathValue("id"), p); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	courses, err := h.publisher.Queue(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if courses == nil {
		courses = []course.Course{}
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *handler) handleQueueExport(w http.ResponseWriter, r *http.Request) {
	courses, err := h.publisher.Queue(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := review.ExportXLSX(&buf, courses); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", `attachment; filename="review-queue.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	var d course.Decision
	if !decodeBody(w, r, &d) {
		return
	}
	c, err := h.publisher.Review(r.Context(), r.PathValue("id"), d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// requireToken guards admin routes with a static bearer token.
func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode response failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
