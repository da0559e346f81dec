package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/mrwolf/moodcast/internal/config"
	"github.com/mrwolf/moodcast/internal/db"
	"github.com/mrwolf/moodcast/internal/logstore"
	"github.com/mrwolf/moodcast/internal/models"
	"github.com/mrwolf/moodcast/internal/mood"
	"github.com/mrwolf/moodcast/internal/report"
	"github.com/mrwolf/moodcast/internal/tracking"
)

const version = "1.0.0"

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

func writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Success: false,
		Message: message,
		Code:    code,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// LogStore is the upstream source of mood logs
type LogStore interface {
	FetchLogs(ctx context.Context, credential string) ([]mood.RawLog, error)
	HealthCheck(ctx context.Context) error
}

// TrackingRunner triggers the weekly tracking job on demand
type TrackingRunner interface {
	RunNow(ctx context.Context) []tracking.RunResult
}

// Dependencies wires the handlers to the services they call. Tracker,
// Reports and Runner are only needed when the admin surface is enabled.
type Dependencies struct {
	Config   *config.Config
	DB       *db.DB
	LogStore LogStore
	Tracker  *tracking.Service
	Reports  *report.Store
	Runner   TrackingRunner
	Clock    clockwork.Clock
}

type Handlers struct {
	cfg      *config.Config
	db       *db.DB
	logStore LogStore
	tracker  *tracking.Service
	reports  *report.Store
	runner   TrackingRunner
	clock    clockwork.Clock
}

func NewHandlers(deps Dependencies) *Handlers {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Handlers{
		cfg:      deps.Config,
		db:       deps.DB,
		logStore: deps.LogStore,
		tracker:  deps.Tracker,
		reports:  deps.Reports,
		runner:   deps.Runner,
		clock:    clock,
	}
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:   "ok",
		LogStore: h.checkLogStore(r.Context()),
		Database: h.checkDatabase(),
		Version:  version,
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

func (h *Handlers) checkLogStore(ctx context.Context) string {
	if h.logStore == nil {
		return "not configured"
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.logStore.HealthCheck(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "connected"
}

func (h *Handlers) checkDatabase() string {
	if h.db == nil {
		return "not configured"
	}
	if err := h.db.Ping(); err != nil {
		return "error: " + err.Error()
	}
	return "connected"
}

// fetchLogs pulls the caller's logs, writing the error response on failure
func (h *Handlers) fetchLogs(w http.ResponseWriter, r *http.Request) ([]mood.RawLog, bool) {
	logs, err := h.logStore.FetchLogs(r.Context(), GetCredential(r))
	if err != nil {
		log.Printf("Error fetching mood logs: %v", err)
		if errors.Is(err, logstore.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Log store rejected the authorization token", "UNAUTHORIZED")
			return nil, false
		}
		writeError(w, http.StatusBadGateway, "Failed to fetch mood logs from backend", "UPSTREAM_ERROR")
		return nil, false
	}
	return logs, true
}

// PredictCategory handles GET /api/predict-category-mood?category=
func (h *Handlers) PredictCategory(w http.ResponseWriter, r *http.Request) {
	category, err := mood.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid category. Must be one of: activity, social, health, sleep", "INVALID_CATEGORY")
		return
	}

	logs, ok := h.fetchLogs(w, r)
	if !ok {
		return
	}

	forecast, err := mood.Predict(logs, category, h.clock.Now())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, models.PredictionResponse{
		Success:     true,
		Category:    category.String(),
		Predictions: forecast.Predictions,
		DateRange:   forecast.DateRange,
	})
}

func (h *Handlers) writeEngineError(w http.ResponseWriter, err error) {
	if !mood.IsDataFailure(err) {
		log.Printf("Error predicting moods: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL")
		return
	}
	writeError(w, http.StatusBadRequest, err.Error(), engineErrorCode(err))
}

func engineErrorCode(err error) string {
	switch {
	case errors.Is(err, mood.ErrNoLogs):
		return "NO_LOGS"
	case errors.Is(err, mood.ErrNoDataForCategory):
		return "NO_DATA"
	case errors.Is(err, mood.ErrInsufficientData):
		return "INSUFFICIENT_DATA"
	case errors.Is(err, mood.ErrMissingRequiredField):
		return "MISSING_FIELD"
	default:
		return "PREDICTION_FAILED"
	}
}

// CheckCategoryData handles GET /api/check-category-data
func (h *Handlers) CheckCategoryData(w http.ResponseWriter, r *http.Request) {
	logs, ok := h.fetchLogs(w, r)
	if !ok {
		return
	}

	availability := make(map[string]mood.Availability, len(mood.Categories))
	for c, a := range mood.CheckAvailability(logs, h.clock.Now()) {
		availability[c.String()] = a
	}

	writeJSON(w, models.AvailabilityResponse{Success: true, Availability: availability})
}

// PredictAllCategories handles GET /api/predict-all-categories
func (h *Handlers) PredictAllCategories(w http.ResponseWriter, r *http.Request) {
	logs, ok := h.fetchLogs(w, r)
	if !ok {
		return
	}

	results := make(map[string]mood.CategoryResult, len(mood.Categories))
	for c, res := range mood.PredictAll(logs, h.clock.Now()) {
		results[c.String()] = res
	}

	writeJSON(w, models.AllCategoriesResponse{Success: true, Results: results})
}

// DebugMoodData handles GET /api/debug-mood-data
func (h *Handlers) DebugMoodData(w http.ResponseWriter, r *http.Request) {
	logs, ok := h.fetchLogs(w, r)
	if !ok {
		return
	}
	writeJSON(w, models.DebugResponse{Success: true, Debug: mood.Inspect(logs)})
}

// RunTracking handles POST /api/admin/tracking/run
func (h *Handlers) RunTracking(w http.ResponseWriter, r *http.Request) {
	results := h.runner.RunNow(r.Context())
	writeJSON(w, models.RunResponse{Success: true, Results: results})
}

// UpdateActuals handles POST /api/admin/tracking/actuals
func (h *Handlers) UpdateActuals(w http.ResponseWriter, r *http.Request) {
	var req models.ActualsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_BODY")
		return
	}
	if !validWeekStart(req.WeekStartDate) {
		writeError(w, http.StatusBadRequest, "weekStartDate must be a YYYY-MM-DD Monday", "INVALID_WEEK")
		return
	}

	updated, err := h.tracker.UpdateActuals(r.Context(), req.WeekStartDate)
	if err != nil {
		log.Printf("Error updating actual moods for %s: %v", req.WeekStartDate, err)
		if errors.Is(err, tracking.ErrFetchLogs) {
			writeError(w, http.StatusBadGateway, "Failed to fetch mood logs from backend", "UPSTREAM_ERROR")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL")
		return
	}

	writeJSON(w, models.ActualsResponse{Success: true, Updated: updated})
}

// TrackedWeeks handles GET /api/admin/tracking/weeks
func (h *Handlers) TrackedWeeks(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.tracker.Weeks()
	if err != nil {
		log.Printf("Error listing tracked weeks: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL")
		return
	}

	weeks := make([]models.Week, 0, len(summaries))
	for _, s := range summaries {
		weeks = append(weeks, models.Week{
			WeekStartDate: s.WeekStartDate,
			Year:          s.Year,
			Week:          s.Week,
			Users:         s.UserCount,
		})
	}
	writeJSON(w, models.WeeksResponse{Success: true, Weeks: weeks})
}

// SchedulerRuns handles GET /api/admin/tracking/runs?limit=
func (h *Handlers) SchedulerRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunsLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxRunsLimit), "INVALID_LIMIT")
			return
		}
		limit = n
	}

	records, err := h.db.RecentRuns(limit)
	if err != nil {
		log.Printf("Error listing scheduler runs: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL")
		return
	}

	runs := make([]models.SchedulerRun, 0, len(records))
	for _, rec := range records {
		runs = append(runs, models.SchedulerRun{
			User:      rec.UserName,
			JobType:   rec.JobType,
			Status:    rec.Status,
			StartedAt: rec.StartedAt,
			Error:     rec.ErrorMessage,
		})
	}
	writeJSON(w, models.RunsResponse{Success: true, Runs: runs})
}

// Comparison handles GET /api/admin/tracking/comparison?weekStartDate=
func (h *Handlers) Comparison(w http.ResponseWriter, r *http.Request) {
	week := r.URL.Query().Get("weekStartDate")
	if !validWeekStart(week) {
		writeError(w, http.StatusBadRequest, "weekStartDate must be a YYYY-MM-DD Monday", "INVALID_WEEK")
		return
	}

	snapshots, err := h.tracker.WeekSnapshots(week)
	if err != nil {
		log.Printf("Error loading snapshots for %s: %v", week, err)
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL")
		return
	}
	if snapshots == nil {
		snapshots = []*tracking.Snapshot{}
	}

	writeJSON(w, models.ComparisonResponse{Success: true, WeekStartDate: week, Snapshots: snapshots})
}

// DailyComparison handles GET /api/admin/tracking/daily-comparison?weekStartDate=
func (h *Handlers) DailyComparison(w http.ResponseWriter, r *http.Request) {
	week := r.URL.Query().Get("weekStartDate")
	if !validWeekStart(week) {
		writeError(w, http.StatusBadRequest, "weekStartDate must be a YYYY-MM-DD Monday", "INVALID_WEEK")
		return
	}

	days, err := h.tracker.DailyComparison(week)
	if err != nil {
		log.Printf("Error comparing week %s: %v", week, err)
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL")
		return
	}

	writeJSON(w, models.DailyComparisonResponse{Success: true, WeekStartDate: week, Days: days})
}

// Report handles GET /api/admin/reports/{user}/{week}
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	week := chi.URLParam(r, "week")

	if _, ok := h.cfg.TrackedUser(user); !ok {
		writeError(w, http.StatusNotFound, "Unknown user", "NOT_FOUND")
		return
	}

	page, err := h.reports.HTML(user, week)
	switch {
	case errors.Is(err, report.ErrNotFound):
		writeError(w, http.StatusNotFound, "Report not found", "NOT_FOUND")
		return
	case err != nil:
		log.Printf("Error rendering report %s/%s: %v", user, week, err)
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_REPORT")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

func validWeekStart(s string) bool {
	t, err := time.Parse("2006-01-02", s)
	return err == nil && t.Weekday() == time.Monday
}
