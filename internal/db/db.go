package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
-- One forecast snapshot per tracked user per ISO week
CREATE TABLE IF NOT EXISTS prediction_snapshots (
    id TEXT PRIMARY KEY,
    user_name TEXT NOT NULL,
    year INTEGER NOT NULL,
    week INTEGER NOT NULL,
    week_start TEXT NOT NULL,       -- RFC3339, Monday 00:00 local
    week_start_date TEXT NOT NULL,  -- YYYY-MM-DD, lookup key
    week_end TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (user_name, year, week)
);

-- Weekday predictions of a snapshot; actual is filled once the week is over
CREATE TABLE IF NOT EXISTS snapshot_predictions (
    snapshot_id TEXT NOT NULL REFERENCES prediction_snapshots(id) ON DELETE CASCADE,
    category TEXT NOT NULL,
    weekday TEXT NOT NULL,
    predicted TEXT NOT NULL,
    confidence REAL NOT NULL DEFAULT 0,
    activity TEXT NOT NULL DEFAULT '',
    probabilities TEXT NOT NULL,    -- JSON object emotion -> probability
    actual TEXT,
    PRIMARY KEY (snapshot_id, category, weekday)
);

-- Scheduler job tracking per user
CREATE TABLE IF NOT EXISTS scheduler_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_name TEXT NOT NULL,
    job_type TEXT NOT NULL,
    status TEXT NOT NULL,
    started_at TEXT NOT NULL,
    completed_at TEXT,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_snapshots_week ON prediction_snapshots(week_start_date);
CREATE INDEX IF NOT EXISTS idx_scheduler_user ON scheduler_runs(user_name, job_type);
`

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(schema)
	if err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database connection
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Snapshot is a stored weekly forecast header
type Snapshot struct {
	ID        string
	UserName  string
	Year      int
	Week      int
	WeekStart time.Time
	WeekEnd   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PredictionRow is one (category, weekday) prediction of a snapshot
type PredictionRow struct {
	Category      string
	Weekday       string
	Predicted     string
	Confidence    float64
	Activity      string
	Probabilities string // JSON
	Actual        *string
}

// WeekSummary groups snapshots sharing a week start
type WeekSummary struct {
	WeekStartDate string
	Year          int
	Week          int
	UserCount     int
}

// UpsertSnapshot stores a snapshot, replacing the predictions of an existing
// snapshot for the same user and week. It returns the stored snapshot ID.
func (db *DB) UpsertSnapshot(s Snapshot, rows []PredictionRow) (string, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`
		INSERT INTO prediction_snapshots (id, user_name, year, week, week_start, week_start_date, week_end, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_name, year, week) DO UPDATE SET
			week_start = excluded.week_start,
			week_start_date = excluded.week_start_date,
			week_end = excluded.week_end,
			updated_at = excluded.updated_at
	`, s.ID, s.UserName, s.Year, s.Week,
		s.WeekStart.Format(time.RFC3339), s.WeekStart.Format("2006-01-02"), s.WeekEnd.Format(time.RFC3339),
		now, now)
	if err != nil {
		return "", fmt.Errorf("upserting snapshot: %w", err)
	}

	var id string
	if err := tx.QueryRow(`
		SELECT id FROM prediction_snapshots WHERE user_name = ? AND year = ? AND week = ?
	`, s.UserName, s.Year, s.Week).Scan(&id); err != nil {
		return "", fmt.Errorf("reloading snapshot id: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM snapshot_predictions WHERE snapshot_id = ?`, id); err != nil {
		return "", fmt.Errorf("clearing predictions: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO snapshot_predictions (snapshot_id, category, weekday, predicted, confidence, activity, probabilities, actual)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(id, r.Category, r.Weekday, r.Predicted, r.Confidence, r.Activity, r.Probabilities, nullString(r.Actual)); err != nil {
			return "", fmt.Errorf("inserting prediction %s/%s: %w", r.Category, r.Weekday, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing snapshot: %w", err)
	}
	return id, nil
}

// GetSnapshot returns the snapshot of a user for an ISO week, or nil
func (db *DB) GetSnapshot(userName string, year, week int) (*Snapshot, error) {
	row := db.conn.QueryRow(`
		SELECT id, user_name, year, week, week_start, week_end, created_at, updated_at
		FROM prediction_snapshots
		WHERE user_name = ? AND year = ? AND week = ?
	`, userName, year, week)

	s, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// SnapshotsForWeek returns every snapshot whose week starts on the given date (YYYY-MM-DD)
func (db *DB) SnapshotsForWeek(weekStartDate string) ([]Snapshot, error) {
	rows, err := db.conn.Query(`
		SELECT id, user_name, year, week, week_start, week_end, created_at, updated_at
		FROM prediction_snapshots
		WHERE week_start_date = ?
		ORDER BY user_name ASC
	`, weekStartDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *s)
	}
	return snapshots, rows.Err()
}

// Predictions returns the rows of a snapshot ordered by category and weekday name
func (db *DB) Predictions(snapshotID string) ([]PredictionRow, error) {
	rows, err := db.conn.Query(`
		SELECT category, weekday, predicted, confidence, activity, probabilities, actual
		FROM snapshot_predictions
		WHERE snapshot_id = ?
		ORDER BY category ASC, weekday ASC
	`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PredictionRow
	for rows.Next() {
		var r PredictionRow
		var actual sql.NullString
		if err := rows.Scan(&r.Category, &r.Weekday, &r.Predicted, &r.Confidence, &r.Activity, &r.Probabilities, &actual); err != nil {
			return nil, err
		}
		if actual.Valid {
			v := actual.String
			r.Actual = &v
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// SetActual records (or clears, with nil) the observed mood of one snapshot cell
func (db *DB) SetActual(snapshotID, category, weekday string, actual *string) error {
	result, err := db.conn.Exec(`
		UPDATE snapshot_predictions SET actual = ?
		WHERE snapshot_id = ? AND category = ? AND weekday = ?
	`, nullString(actual), snapshotID, category, weekday)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no prediction %s/%s in snapshot %s", category, weekday, snapshotID)
	}
	return nil
}

// ListWeeks returns the weeks holding snapshots, most recent first
func (db *DB) ListWeeks() ([]WeekSummary, error) {
	rows, err := db.conn.Query(`
		SELECT week_start_date, MIN(year), MIN(week), COUNT(*)
		FROM prediction_snapshots
		GROUP BY week_start_date
		ORDER BY week_start_date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weeks []WeekSummary
	for rows.Next() {
		var w WeekSummary
		if err := rows.Scan(&w.WeekStartDate, &w.Year, &w.Week, &w.UserCount); err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

// LogRunStart records the start of a scheduler job and returns its run ID
func (db *DB) LogRunStart(userName, jobType string) (int64, error) {
	result, err := db.conn.Exec(`
		INSERT INTO scheduler_runs (user_name, job_type, status, started_at)
		VALUES (?, ?, 'running', ?)
	`, userName, jobType, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// LogRunFinish marks a scheduler job as completed or failed
func (db *DB) LogRunFinish(runID int64, runErr error) error {
	status := "completed"
	var message sql.NullString
	if runErr != nil {
		status = "failed"
		message = sql.NullString{String: runErr.Error(), Valid: true}
	}
	_, err := db.conn.Exec(`
		UPDATE scheduler_runs SET status = ?, completed_at = ?, error_message = ?
		WHERE id = ?
	`, status, time.Now().UTC().Format(time.RFC3339), message, runID)
	return err
}

// RunRecord is a row of scheduler_runs
type RunRecord struct {
	UserName     string
	JobType      string
	Status       string
	StartedAt    time.Time
	ErrorMessage string
}

// RecentRuns returns the latest scheduler runs, newest first
func (db *DB) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := db.conn.Query(`
		SELECT user_name, job_type, status, started_at, COALESCE(error_message, '')
		FROM scheduler_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started string
		if err := rows.Scan(&r.UserName, &r.JobType, &r.Status, &started, &r.ErrorMessage); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var s Snapshot
	var weekStart, weekEnd, created, updated string
	if err := row.Scan(&s.ID, &s.UserName, &s.Year, &s.Week, &weekStart, &weekEnd, &created, &updated); err != nil {
		return nil, err
	}
	s.WeekStart, _ = time.Parse(time.RFC3339, weekStart)
	s.WeekEnd, _ = time.Parse(time.RFC3339, weekEnd)
	s.CreatedAt, _ = time.Parse(time.RFC3339, created)
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &s, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
