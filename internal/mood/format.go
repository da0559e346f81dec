package mood

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "January 02, 2006"

// Prediction is the forecast for one weekday
type Prediction struct {
	Emotion        Emotion
	NoData         bool
	Confidence     float64
	Breakdown      map[Emotion]float64
	ValenceAverage float64
	Activity       string
	Date           string
}

// NoDataPrediction is the sentinel for weekdays without usable data
func NoDataPrediction() Prediction {
	return Prediction{
		NoData:    true,
		Breakdown: map[Emotion]float64{},
		Activity:  NoDataAvailable,
		Date:      NoDataAvailable,
	}
}

// Label is the dominant emotion name, or NoDataAvailable for the sentinel
func (p Prediction) Label() string {
	if p.NoData {
		return NoDataAvailable
	}
	return p.Emotion.String()
}

type predictionJSON struct {
	Prediction     string              `json:"prediction"`
	Confidence     float64             `json:"confidence"`
	Breakdown      map[Emotion]float64 `json:"emotion_breakdown"`
	ValenceAverage float64             `json:"valence_avg"`
	Activity       string              `json:"activity"`
	Date           string              `json:"date"`
}

func (p Prediction) MarshalJSON() ([]byte, error) {
	breakdown := p.Breakdown
	if breakdown == nil {
		breakdown = map[Emotion]float64{}
	}
	return json.Marshal(predictionJSON{
		Prediction:     p.Label(),
		Confidence:     p.Confidence,
		Breakdown:      breakdown,
		ValenceAverage: p.ValenceAverage,
		Activity:       p.Activity,
		Date:           p.Date,
	})
}

func (p *Prediction) UnmarshalJSON(data []byte) error {
	var raw predictionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Prediction{
		Confidence:     raw.Confidence,
		Breakdown:      raw.Breakdown,
		ValenceAverage: raw.ValenceAverage,
		Activity:       raw.Activity,
		Date:           raw.Date,
	}
	emotion, ok := ParseEmotion(raw.Prediction)
	if !ok {
		p.NoData = true
		return nil
	}
	p.Emotion = emotion
	return nil
}

// DateRangeSummary describes the windowed dataset a forecast was built from
type DateRangeSummary struct {
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	FormattedRange string `json:"formatted_range"`
	TotalEntries   int    `json:"total_entries"`
	WeeksOfData    int    `json:"weeks_of_data"`
}

// Forecast is the full result for one category, keyed by weekday name
type Forecast struct {
	Category    Category              `json:"category"`
	Predictions map[string]Prediction `json:"predictions"`
	DateRange   DateRangeSummary      `json:"date_range"`
}

// Prediction returns the forecast for a weekday
func (f *Forecast) Prediction(day time.Weekday) Prediction {
	if p, ok := f.Predictions[day.String()]; ok {
		return p
	}
	return NoDataPrediction()
}

// Summarize builds the date-range summary from the window's first and last entries
func (w *Window) Summarize() DateRangeSummary {
	start := w.local(w.Entries[0].Timestamp)
	end := w.local(w.Entries[len(w.Entries)-1].Timestamp)
	return DateRangeSummary{
		StartDate:      start.Format(dateLayout),
		EndDate:        end.Format(dateLayout),
		FormattedRange: FormatRange(start, end),
		TotalEntries:   len(w.Entries),
		WeeksOfData:    w.WeeksOfData(),
	}
}

// FormatRange renders a date span, collapsing the shared month and year
func FormatRange(start, end time.Time) string {
	switch {
	case start.Year() == end.Year() && start.Month() == end.Month():
		return fmt.Sprintf("%s – %s", start.Format("January 02"), end.Format("02, 2006"))
	case start.Year() == end.Year():
		return fmt.Sprintf("%s – %s", start.Format("January 02"), end.Format(dateLayout))
	default:
		return fmt.Sprintf("%s – %s", start.Format(dateLayout), end.Format(dateLayout))
	}
}

// UpcomingDate returns the next occurrence of day on or after now's date
func UpcomingDate(now time.Time, day time.Weekday) time.Time {
	offset := (int(day) - int(now.Weekday()) + 7) % 7
	d := now.AddDate(0, 0, offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
}
