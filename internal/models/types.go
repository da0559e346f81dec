package models

import (
	"time"

	"github.com/mrwolf/moodcast/internal/mood"
	"github.com/mrwolf/moodcast/internal/tracking"
)

// ErrorResponse is the standard error envelope
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// PredictionResponse is returned by the single-category forecast endpoint
type PredictionResponse struct {
	Success     bool                       `json:"success"`
	Category    string                     `json:"category"`
	Predictions map[string]mood.Prediction `json:"predictions"`
	DateRange   mood.DateRangeSummary      `json:"date_range"`
}

// AvailabilityResponse is returned by the data-availability endpoint
type AvailabilityResponse struct {
	Success      bool                         `json:"success"`
	Availability map[string]mood.Availability `json:"availability"`
}

// AllCategoriesResponse is returned by the batch forecast endpoint
type AllCategoriesResponse struct {
	Success bool                           `json:"success"`
	Results map[string]mood.CategoryResult `json:"results"`
}

// DebugResponse is returned by the raw-log inspection endpoint
type DebugResponse struct {
	Success bool           `json:"success"`
	Debug   mood.DebugInfo `json:"debug_info"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status   string `json:"status"`
	LogStore string `json:"log_store"`
	Database string `json:"database"`
	Version  string `json:"version"`
}

// RunResponse is returned after a manual tracking run
type RunResponse struct {
	Success bool                 `json:"success"`
	Results []tracking.RunResult `json:"results"`
}

// ActualsRequest selects the week whose actual moods are resolved
type ActualsRequest struct {
	WeekStartDate string `json:"weekStartDate"`
}

// ActualsResponse reports resolved cells per user
type ActualsResponse struct {
	Success bool           `json:"success"`
	Updated map[string]int `json:"updated"`
}

// Week is one entry of the tracked-weeks listing
type Week struct {
	WeekStartDate string `json:"weekStartDate"`
	Year          int    `json:"year"`
	Week          int    `json:"week"`
	Users         int    `json:"users"`
}

// WeeksResponse lists weeks holding snapshots
type WeeksResponse struct {
	Success bool   `json:"success"`
	Weeks   []Week `json:"weeks"`
}

// ComparisonResponse returns the stored snapshots of a week
type ComparisonResponse struct {
	Success       bool                 `json:"success"`
	WeekStartDate string               `json:"weekStartDate"`
	Snapshots     []*tracking.Snapshot `json:"snapshots"`
}

// DailyComparisonResponse returns predicted-vs-actual stats of a week
type DailyComparisonResponse struct {
	Success       bool                     `json:"success"`
	WeekStartDate string                   `json:"weekStartDate"`
	Days          []tracking.DayComparison `json:"days"`
}

// SchedulerRun is one recorded weekly job run
type SchedulerRun struct {
	User      string    `json:"user"`
	JobType   string    `json:"jobType"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"startedAt"`
	Error     string    `json:"error,omitempty"`
}

// RunsResponse lists recent scheduler runs, newest first
type RunsResponse struct {
	Success bool           `json:"success"`
	Runs    []SchedulerRun `json:"runs"`
}
