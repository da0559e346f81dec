package mood

import (
	"errors"
	"time"
)

// Predict builds the weekday forecast of one category from a log slice. It is
// a pure function of its inputs: identical logs and now give identical output.
func Predict(logs []RawLog, category Category, now time.Time) (*Forecast, error) {
	w, err := prepare(logs, category, now)
	if err != nil {
		return nil, err
	}

	today := now.In(w.Location)
	forecast := &Forecast{
		Category:    category,
		Predictions: make(map[string]Prediction, len(Weekdays)),
		DateRange:   w.Summarize(),
	}
	for _, day := range Weekdays {
		forecast.Predictions[day.String()] = w.predictWeekday(day, today)
	}
	return forecast, nil
}

func prepare(logs []RawLog, category Category, now time.Time) (*Window, error) {
	entries, _, err := Normalize(logs, category)
	if err != nil {
		return nil, err
	}
	return SelectWindow(entries, category, now)
}

func (w *Window) predictWeekday(day time.Weekday, today time.Time) Prediction {
	bucket := w.WeekdayBucket(day)
	if len(bucket) == 0 {
		return NoDataPrediction()
	}

	days := w.AggregateDays(bucket)
	scores, ok := Score(days)
	if !ok {
		return NoDataPrediction()
	}

	return Prediction{
		Emotion:        scores.Dominant,
		Confidence:     round(scores.Confidence, 3),
		Breakdown:      scores.Breakdown(),
		ValenceAverage: round(ValenceAverage(bucket), 2),
		Activity:       ResolveActivity(days, scores.Dominant),
		Date:           UpcomingDate(today, day).Format(dateLayout),
	}
}

// CategoryResult is the outcome of one category in a batch: a forecast or
// the reason there is none
type CategoryResult struct {
	Forecast *Forecast `json:"forecast,omitempty"`
	Err      error     `json:"-"`
	Message  string    `json:"error,omitempty"`
}

// PredictAll runs Predict for every category. A failing category is
// reported in its own result and never affects the others.
func PredictAll(logs []RawLog, now time.Time) map[Category]CategoryResult {
	results := make(map[Category]CategoryResult, len(Categories))
	for _, c := range Categories {
		forecast, err := Predict(logs, c, now)
		if err != nil {
			results[c] = CategoryResult{Err: err, Message: err.Error()}
			continue
		}
		results[c] = CategoryResult{Forecast: forecast}
	}
	return results
}

// IsDataFailure reports whether err is one of the expected data-sufficiency
// failures rather than a programming or transport error
func IsDataFailure(err error) bool {
	return errors.Is(err, ErrNoLogs) ||
		errors.Is(err, ErrNoDataForCategory) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrMissingRequiredField)
}
