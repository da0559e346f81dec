package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mrwolf/moodcast/internal/config"
	"github.com/mrwolf/moodcast/internal/db"
	"github.com/mrwolf/moodcast/internal/mood"
)

var (
	// ErrUnknownUser is returned for a snapshot owner missing from the tracked users
	ErrUnknownUser = errors.New("user is not tracked")
	// ErrFetchLogs wraps failures of the upstream log source
	ErrFetchLogs = errors.New("fetching logs")
)

// LogSource fetches the raw mood logs visible to a credential
type LogSource interface {
	FetchLogs(ctx context.Context, credential string) ([]mood.RawLog, error)
}

// Service captures weekly snapshots and resolves them against what was logged
type Service struct {
	db       *db.DB
	source   LogSource
	users    []config.TrackedUser
	location *time.Location
	clock    clockwork.Clock
}

func NewService(database *db.DB, source LogSource, users []config.TrackedUser, loc *time.Location, clock clockwork.Clock) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		db:       database,
		source:   source,
		users:    users,
		location: loc,
		clock:    clock,
	}
}

// Users returns the tracked users
func (s *Service) Users() []config.TrackedUser {
	return s.users
}

// Now is the service clock in the configured timezone
func (s *Service) Now() time.Time {
	return s.clock.Now().In(s.location)
}

// RunResult is the outcome of a tracking run for one user
type RunResult struct {
	User     string    `json:"user"`
	Snapshot *Snapshot `json:"-"`
	Resolved int       `json:"resolvedActuals"`
	Error    string    `json:"error,omitempty"`
}

// RunUser fetches the user's logs, stores this week's snapshot, and resolves
// actual moods on last week's snapshot
func (s *Service) RunUser(ctx context.Context, user config.TrackedUser) (*RunResult, error) {
	logs, err := s.source.FetchLogs(ctx, user.Credential())
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrFetchLogs, user.Name, err)
	}

	now := s.Now()
	snap, err := s.Capture(user.Name, logs, now)
	if err != nil {
		return nil, err
	}

	lastYear, lastWeek := now.AddDate(0, 0, -7).ISOWeek()
	resolved, err := s.resolve(user.Name, lastYear, lastWeek, logs)
	if err != nil {
		return nil, err
	}

	return &RunResult{User: user.Name, Snapshot: snap, Resolved: resolved}, nil
}

// Capture builds and stores the snapshot of the week containing now
func (s *Service) Capture(user string, logs []mood.RawLog, now time.Time) (*Snapshot, error) {
	snap := BuildSnapshot(user, logs, now)
	rows, err := snap.rows()
	if err != nil {
		return nil, err
	}
	id, err := s.db.UpsertSnapshot(snap.record(), rows)
	if err != nil {
		return nil, fmt.Errorf("storing snapshot for %s: %w", user, err)
	}
	snap.ID = id
	log.Printf("Stored snapshot %s for %s (%d-W%02d)", id, user, snap.Year, snap.Week)
	return snap, nil
}

// UpdateActuals resolves actual moods for every snapshot of the week starting
// on weekStartDate (YYYY-MM-DD). It returns the number of resolved cells per user.
func (s *Service) UpdateActuals(ctx context.Context, weekStartDate string) (map[string]int, error) {
	if _, err := time.Parse("2006-01-02", weekStartDate); err != nil {
		return nil, fmt.Errorf("invalid week start date %q: %w", weekStartDate, err)
	}

	records, err := s.db.SnapshotsForWeek(weekStartDate)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	updated := make(map[string]int, len(records))
	for _, rec := range records {
		user, ok := s.trackedUser(rec.UserName)
		if !ok {
			log.Printf("Skipping snapshot %s: %v (%s)", rec.ID, ErrUnknownUser, rec.UserName)
			continue
		}
		logs, err := s.source.FetchLogs(ctx, user.Credential())
		if err != nil {
			return updated, fmt.Errorf("%w for %s: %w", ErrFetchLogs, user.Name, err)
		}
		n, err := s.resolve(rec.UserName, rec.Year, rec.Week, logs)
		if err != nil {
			return updated, err
		}
		updated[rec.UserName] = n
	}
	return updated, nil
}

// resolve fills the actual moods of a stored snapshot; a missing snapshot resolves nothing
func (s *Service) resolve(user string, year, week int, logs []mood.RawLog) (int, error) {
	rec, err := s.db.GetSnapshot(user, year, week)
	if err != nil {
		return 0, fmt.Errorf("loading snapshot %s %d-W%02d: %w", user, year, week, err)
	}
	if rec == nil {
		return 0, nil
	}

	weekStart := rec.WeekStart.In(s.location)
	weekStart = time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, s.location)

	resolved := 0
	for _, category := range mood.Categories {
		for i, day := range mood.Weekdays {
			var actual *string
			if e, ok := ResolveActual(logs, category, weekStart.AddDate(0, 0, i)); ok {
				name := e.String()
				actual = &name
				resolved++
			}
			if err := s.db.SetActual(rec.ID, category.String(), day.String(), actual); err != nil {
				return resolved, fmt.Errorf("setting actual for %s: %w", user, err)
			}
		}
	}
	log.Printf("Resolved %d actual moods for %s (%d-W%02d)", resolved, user, year, week)
	return resolved, nil
}

// Weeks lists the weeks holding snapshots, most recent first
func (s *Service) Weeks() ([]db.WeekSummary, error) {
	return s.db.ListWeeks()
}

// WeekSnapshots loads every snapshot of the week starting on weekStartDate
func (s *Service) WeekSnapshots(weekStartDate string) ([]*Snapshot, error) {
	records, err := s.db.SnapshotsForWeek(weekStartDate)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	snapshots := make([]*Snapshot, 0, len(records))
	for _, rec := range records {
		snap, err := s.load(rec)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// loadSnapshot loads the snapshot of a user for an ISO week, or nil when none exists
func (s *Service) loadSnapshot(user string, year, week int) (*Snapshot, error) {
	rec, err := s.db.GetSnapshot(user, year, week)
	if err != nil || rec == nil {
		return nil, err
	}
	return s.load(*rec)
}

// DailyComparison compares predicted and actual moods of one week
func (s *Service) DailyComparison(weekStartDate string) ([]DayComparison, error) {
	snapshots, err := s.WeekSnapshots(weekStartDate)
	if err != nil {
		return nil, err
	}
	return Compare(snapshots), nil
}

func (s *Service) load(rec db.Snapshot) (*Snapshot, error) {
	rows, err := s.db.Predictions(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("loading predictions of %s: %w", rec.ID, err)
	}
	return snapshotFromRecord(rec, rows)
}

func (s *Service) trackedUser(name string) (config.TrackedUser, bool) {
	for _, u := range s.users {
		if u.Name == name {
			return u, true
		}
	}
	return config.TrackedUser{}, false
}
