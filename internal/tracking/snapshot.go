package tracking

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mrwolf/moodcast/internal/db"
	"github.com/mrwolf/moodcast/internal/mood"
)

// Cell is the stored prediction of one (category, weekday)
type Cell struct {
	Predicted     string             `json:"predictedMood"`
	Confidence    float64            `json:"confidence"`
	Activity      string             `json:"activity,omitempty"`
	Probabilities map[string]float64 `json:"probabilities"`
	Actual        *string            `json:"actualMood"`
}

// Sentinel reports whether the cell holds the no-data placeholder
func (c Cell) Sentinel() bool {
	return c.Predicted == mood.NoDataAvailable
}

// Snapshot is the weekly forecast of one user as captured at the start of the week
type Snapshot struct {
	ID          string                     `json:"id"`
	User        string                     `json:"user"`
	Year        int                        `json:"year"`
	Week        int                        `json:"week"`
	WeekStart   time.Time                  `json:"weekStart"`
	WeekEnd     time.Time                  `json:"weekEnd"`
	Predictions map[string]map[string]Cell `json:"predictions"`
}

// WeekStartDate is the YYYY-MM-DD key of the snapshot's Monday
func (s *Snapshot) WeekStartDate() string {
	return s.WeekStart.Format("2006-01-02")
}

// BuildSnapshot runs the engine over every category for the ISO week of now.
// Categories the engine cannot forecast are stored as the sentinel on all
// seven weekdays.
func BuildSnapshot(user string, logs []mood.RawLog, now time.Time) *Snapshot {
	weekStart := mood.StartOfWeek(now)
	year, week := weekStart.ISOWeek()

	snap := &Snapshot{
		ID:          uuid.NewString(),
		User:        user,
		Year:        year,
		Week:        week,
		WeekStart:   weekStart,
		WeekEnd:     weekStart.AddDate(0, 0, 7).Add(-time.Second),
		Predictions: make(map[string]map[string]Cell, len(mood.Categories)),
	}

	results := mood.PredictAll(logs, now)
	for _, category := range mood.Categories {
		days := make(map[string]Cell, len(mood.Weekdays))
		result := results[category]
		for _, day := range mood.Weekdays {
			p := mood.NoDataPrediction()
			if result.Forecast != nil {
				p = result.Forecast.Prediction(day)
			}
			days[day.String()] = cellFrom(p)
		}
		snap.Predictions[category.String()] = days
	}
	return snap
}

func cellFrom(p mood.Prediction) Cell {
	probs := make(map[string]float64, len(p.Breakdown))
	for e, v := range p.Breakdown {
		probs[e.String()] = v
	}
	return Cell{
		Predicted:     p.Label(),
		Confidence:    p.Confidence,
		Activity:      p.Activity,
		Probabilities: probs,
	}
}

func (s *Snapshot) record() db.Snapshot {
	return db.Snapshot{
		ID:        s.ID,
		UserName:  s.User,
		Year:      s.Year,
		Week:      s.Week,
		WeekStart: s.WeekStart,
		WeekEnd:   s.WeekEnd,
	}
}

func (s *Snapshot) rows() ([]db.PredictionRow, error) {
	var rows []db.PredictionRow
	for _, category := range mood.Categories {
		for _, day := range mood.Weekdays {
			cell, ok := s.Predictions[category.String()][day.String()]
			if !ok {
				continue
			}
			probs, err := json.Marshal(cell.Probabilities)
			if err != nil {
				return nil, fmt.Errorf("encoding probabilities: %w", err)
			}
			rows = append(rows, db.PredictionRow{
				Category:      category.String(),
				Weekday:       day.String(),
				Predicted:     cell.Predicted,
				Confidence:    cell.Confidence,
				Activity:      cell.Activity,
				Probabilities: string(probs),
				Actual:        cell.Actual,
			})
		}
	}
	return rows, nil
}

func snapshotFromRecord(rec db.Snapshot, rows []db.PredictionRow) (*Snapshot, error) {
	snap := &Snapshot{
		ID:          rec.ID,
		User:        rec.UserName,
		Year:        rec.Year,
		Week:        rec.Week,
		WeekStart:   rec.WeekStart,
		WeekEnd:     rec.WeekEnd,
		Predictions: make(map[string]map[string]Cell),
	}
	for _, r := range rows {
		probs := map[string]float64{}
		if err := json.Unmarshal([]byte(r.Probabilities), &probs); err != nil {
			return nil, fmt.Errorf("decoding probabilities of %s/%s: %w", r.Category, r.Weekday, err)
		}
		if snap.Predictions[r.Category] == nil {
			snap.Predictions[r.Category] = make(map[string]Cell)
		}
		snap.Predictions[r.Category][r.Weekday] = Cell{
			Predicted:     r.Predicted,
			Confidence:    r.Confidence,
			Activity:      r.Activity,
			Probabilities: probs,
			Actual:        r.Actual,
		}
	}
	return snap, nil
}
