package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap/zapcore"

	"cfanalytics/cache"
	"cfanalytics/logger"
	"cfanalytics/model"
	"cfanalytics/service"
)

const (
	defaultTopK       = 10
	defaultHistoryLen = 30
	defaultRecentLen  = 50
	maxBodyBytes      = 64 << 10
)

type analytics interface {
	GetDashboard(ctx context.Context, handle string) (*model.Dashboard, error)
	GetStats(ctx context.Context, handle string) (*model.DerivedStats, error)
	CompareUsers(ctx context.Context, handle string, others []string) (*model.Comparison, error)
	ExportReport(ctx context.Context, handle string) (*model.Report, error)
	GetStatsHistory(ctx context.Context, handle string, limit int) ([]model.StatsSnapshot, error)
	GetRecentSubmissions(ctx context.Context, handle string, limit int) ([]model.RecentSubmission, error)
	GetLayout(ctx context.Context, handle string) (*model.DashboardLayout, error)
	UpdateLayout(ctx context.Context, handle string, updates []model.Widget) (*model.DashboardLayout, error)
	TrackHandle(ctx context.Context, handle string) (bool, error)
	UntrackHandle(ctx context.Context, handle string) error
	ListTracked(ctx context.Context) ([]model.TrackedHandle, error)
	TopTracked(ctx context.Context, k int) ([]model.BoardEntry, error)
	RefreshTrackedHandles(ctx context.Context) (service.RefreshSummary, error)
}

type Handlers struct {
	svc    analytics
	logger *logger.LogStreamer
}

func NewHandlers(svc analytics, log *logger.LogStreamer) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{svc: svc, logger: log}
}

type layoutRequest struct {
	Widgets []model.Widget `json:"widgets"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "Health", http.StatusOK, map[string]any{"status": "ok", "ts": time.Now().UTC()}, nil)
}

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDashboard(r.Context(), mux.Vars(r)["handle"])
	h.respond(w, r, "Dashboard", http.StatusOK, d, err)
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetStats(r.Context(), mux.Vars(r)["handle"])
	h.respond(w, r, "Stats", http.StatusOK, stats, err)
}

func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.ExportReport(r.Context(), mux.Vars(r)["handle"])
	h.respond(w, r, "Report", http.StatusOK, report, err)
}

// Compare reads the other handles from a comma separated ?with= list.
func (h *Handlers) Compare(w http.ResponseWriter, r *http.Request) {
	var others []string
	for _, part := range strings.Split(r.URL.Query().Get("with"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			others = append(others, part)
		}
	}
	cmp, err := h.svc.CompareUsers(r.Context(), mux.Vars(r)["handle"], others)
	h.respond(w, r, "Compare", http.StatusOK, cmp, err)
}

func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", defaultHistoryLen)
	if err != nil {
		h.badRequest(w, r, "History", err)
		return
	}
	history, err := h.svc.GetStatsHistory(r.Context(), mux.Vars(r)["handle"], limit)
	h.respond(w, r, "History", http.StatusOK, history, err)
}

// Submissions serves the newest ?limit= submissions; limit=0 lists all of them.
func (h *Handlers) Submissions(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", defaultRecentLen)
	if err != nil {
		h.badRequest(w, r, "Submissions", err)
		return
	}
	rows, err := h.svc.GetRecentSubmissions(r.Context(), mux.Vars(r)["handle"], limit)
	h.respond(w, r, "Submissions", http.StatusOK, rows, err)
}

func (h *Handlers) GetLayout(w http.ResponseWriter, r *http.Request) {
	layout, err := h.svc.GetLayout(r.Context(), mux.Vars(r)["handle"])
	h.respond(w, r, "GetLayout", http.StatusOK, layout, err)
}

func (h *Handlers) UpdateLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.badRequest(w, r, "UpdateLayout", err)
		return
	}
	layout, err := h.svc.UpdateLayout(r.Context(), mux.Vars(r)["handle"], req.Widgets)
	h.respond(w, r, "UpdateLayout", http.StatusOK, layout, err)
}

func (h *Handlers) ListWatchlist(w http.ResponseWriter, r *http.Request) {
	tracked, err := h.svc.ListTracked(r.Context())
	h.respond(w, r, "ListWatchlist", http.StatusOK, tracked, err)
}

func (h *Handlers) TopWatchlist(w http.ResponseWriter, r *http.Request) {
	k, err := intQuery(r, "k", defaultTopK)
	if err != nil {
		h.badRequest(w, r, "TopWatchlist", err)
		return
	}
	top, err := h.svc.TopTracked(r.Context(), k)
	h.respond(w, r, "TopWatchlist", http.StatusOK, top, err)
}

// Track answers 201 for a newly tracked handle and 200 when it was already tracked.
func (h *Handlers) Track(w http.ResponseWriter, r *http.Request) {
	handle := mux.Vars(r)["handle"]
	created, err := h.svc.TrackHandle(r.Context(), handle)
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	h.respond(w, r, "Track", code, map[string]any{"handle": cache.CanonicalHandle(handle), "created": created}, err)
}

func (h *Handlers) Untrack(w http.ResponseWriter, r *http.Request) {
	err := h.svc.UntrackHandle(r.Context(), mux.Vars(r)["handle"])
	h.respond(w, r, "Untrack", http.StatusOK, nil, err)
}

func (h *Handlers) RefreshWatchlist(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.RefreshTrackedHandles(r.Context())
	h.respond(w, r, "RefreshWatchlist", http.StatusOK, summary, err)
}

func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, method string, code int, payload any, err error) {
	if err != nil {
		status, info := errorInfo(err)
		h.logger.Log(zapcore.WarnLevel, uuid.New().String(), "Request failed", map[string]any{
			"method":    method,
			"path":      r.URL.Path,
			"status":    status,
			"errorType": info.ErrorType,
		}, "API", err)
		writeJSON(w, status, model.GenericResponse{Success: false, Status: status, Error: info})
		return
	}
	writeJSON(w, code, model.GenericResponse{Success: true, Status: code, Payload: payload})
}

func (h *Handlers) badRequest(w http.ResponseWriter, r *http.Request, method string, err error) {
	h.logger.Log(zapcore.WarnLevel, uuid.New().String(), "Bad request", map[string]any{
		"method":    method,
		"path":      r.URL.Path,
		"errorType": "VALIDATION_ERROR",
	}, "API", err)
	writeJSON(w, http.StatusBadRequest, model.GenericResponse{
		Success: false,
		Status:  http.StatusBadRequest,
		Error:   &model.ErrorInfo{ErrorType: "VALIDATION_ERROR", Code: http.StatusBadRequest, Message: err.Error()},
	})
}

func (h *Handlers) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, model.GenericResponse{
		Success: false,
		Status:  http.StatusNotFound,
		Error:   &model.ErrorInfo{ErrorType: "NOT_FOUND", Code: http.StatusNotFound, Message: "no route for " + r.URL.Path},
	})
}

func (h *Handlers) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, model.GenericResponse{
		Success: false,
		Status:  http.StatusMethodNotAllowed,
		Error:   &model.ErrorInfo{ErrorType: "METHOD_NOT_ALLOWED", Code: http.StatusMethodNotAllowed, Message: r.Method + " not allowed on " + r.URL.Path},
	})
}

func intQuery(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
