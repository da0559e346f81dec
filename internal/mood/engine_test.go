package mood

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"
)

// Wednesday; current week starts Monday 2026-02-16, window starts 2026-01-19
var testNow = time.Date(2026, 2, 18, 10, 0, 0, 0, time.UTC)

var windowMondays = []time.Time{
	time.Date(2026, 1, 19, 0, 0, 0, 0, time.UTC),
	time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC),
	time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
	time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC),
}

func moodLog(ts time.Time, category, emotion, valence string, intensity any, activity string) RawLog {
	return RawLog{
		"timestamp":      ts.Format(time.RFC3339),
		"category":       category,
		"afterEmotion":   emotion,
		"afterValence":   valence,
		"afterIntensity": intensity,
		"activity":       activity,
	}
}

// mondayLogs returns perWeek logs on each window Monday, one hour apart from 08:00
func mondayLogs(perWeek int, category string, emotionFor func(week, i int) string) []RawLog {
	var logs []RawLog
	for week, monday := range windowMondays {
		for i := 0; i < perWeek; i++ {
			emotion := emotionFor(week, i)
			valence := "negative"
			if e, ok := ParseEmotion(emotion); ok && e.Positive() {
				valence = "positive"
			}
			ts := monday.Add(time.Duration(8+i) * time.Hour)
			logs = append(logs, moodLog(ts, category, emotion, valence, 3, "walk"))
		}
	}
	return logs
}

func TestPredictSingleEmotionSaturatesAtCap(t *testing.T) {
	logs := mondayLogs(5, "social", func(week, i int) string { return "happy" })
	// 5 of the 20 are reported as negative
	for i := 0; i < 5; i++ {
		logs[i]["afterValence"] = "negative"
	}
	logs[len(logs)-1]["activity"] = "board games"

	forecast, err := Predict(logs, CategorySocial, testNow)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	monday := forecast.Prediction(time.Monday)
	if monday.NoData {
		t.Fatal("expected a Monday prediction")
	}
	if monday.Emotion != EmotionHappy {
		t.Errorf("emotion = %s, want happy", monday.Emotion)
	}
	if monday.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", monday.Confidence)
	}
	if monday.ValenceAverage != 0.75 {
		t.Errorf("valence average = %v, want 0.75", monday.ValenceAverage)
	}
	if monday.Activity != "board games" {
		t.Errorf("activity = %q, want most recent %q", monday.Activity, "board games")
	}
	if monday.Date != "February 23, 2026" {
		t.Errorf("date = %q, want February 23, 2026", monday.Date)
	}
	if len(monday.Breakdown) != len(Emotions) {
		t.Errorf("breakdown has %d emotions, want %d", len(monday.Breakdown), len(Emotions))
	}
	for _, e := range Emotions {
		want := 0.0
		if e == EmotionHappy {
			want = 0.9
		}
		if got, ok := monday.Breakdown[e]; !ok || got != want {
			t.Errorf("breakdown[%s] = %v (present %v), want %v", e, got, ok, want)
		}
	}

	for _, day := range Weekdays[1:] {
		p := forecast.Prediction(day)
		if !p.NoData || p.Confidence != 0 || p.Activity != NoDataAvailable || p.Date != NoDataAvailable {
			t.Errorf("%s: expected no-data sentinel, got %+v", day, p)
		}
		if len(p.Breakdown) != 0 {
			t.Errorf("%s: sentinel breakdown should be empty", day)
		}
	}

	dr := forecast.DateRange
	if dr.TotalEntries != 20 || dr.WeeksOfData != 4 {
		t.Errorf("date range counts = %d entries / %d weeks, want 20 / 4", dr.TotalEntries, dr.WeeksOfData)
	}
	if dr.StartDate != "January 19, 2026" || dr.EndDate != "February 09, 2026" {
		t.Errorf("date range = %q .. %q", dr.StartDate, dr.EndDate)
	}
	if dr.FormattedRange != "January 19 – February 09, 2026" {
		t.Errorf("formatted range = %q", dr.FormattedRange)
	}
}

func TestPredictTieResolvesInVocabularyOrder(t *testing.T) {
	// happy on weeks 0 and 3 (weights 1+4), sad on weeks 1 and 2 (weights 2+3)
	logs := mondayLogs(4, "activity", func(week, i int) string {
		if week == 0 || week == 3 {
			return "happy"
		}
		return "sad"
	})

	forecast, err := Predict(logs, CategoryActivity, testNow)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	monday := forecast.Prediction(time.Monday)
	if monday.Emotion != EmotionSad {
		t.Errorf("tie winner = %s, want sad (earlier in vocabulary)", monday.Emotion)
	}
	if monday.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", monday.Confidence)
	}
	if monday.Breakdown[EmotionHappy] != 0.5 || monday.Breakdown[EmotionSad] != 0.5 {
		t.Errorf("breakdown = %v, want happy=sad=0.5", monday.Breakdown)
	}
	if monday.ValenceAverage != 0.5 {
		t.Errorf("valence average = %v, want 0.5", monday.ValenceAverage)
	}
}

func TestPredictSleepSurfacesHours(t *testing.T) {
	var logs []RawLog
	for week, monday := range windowMondays {
		for i := 0; i < 4; i++ {
			rec := RawLog{
				"timestamp":      monday.Add(time.Duration(7+i) * time.Hour).Format(time.RFC3339),
				"category":       "sleep",
				"afterEmotion":   "relaxed",
				"afterValence":   "positive",
				"afterIntensity": 4.0,
				"hrs":            7.5,
			}
			if week == 3 && i == 3 {
				rec["hrs"] = 8.0
			}
			logs = append(logs, rec)
		}
	}

	forecast, err := Predict(logs, CategorySleep, testNow)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got := forecast.Prediction(time.Monday).Activity; got != "8" {
		t.Errorf("activity = %q, want hours value %q", got, "8")
	}
}

func TestPredictInsufficientData(t *testing.T) {
	logs := mondayLogs(3, "health", func(week, i int) string { return "calm" })

	forecast, err := Predict(logs, CategoryHealth, testNow)
	if forecast != nil {
		t.Error("expected no forecast")
	}
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}

	var catErr *CategoryError
	if !errors.As(err, &catErr) {
		t.Fatalf("expected *CategoryError, got %T", err)
	}
	if catErr.Found != 12 || catErr.Required != MinEntries {
		t.Errorf("found/required = %d/%d, want 12/%d", catErr.Found, catErr.Required, MinEntries)
	}
	want := "Insufficient data for health. Need at least 14 entries, found 12"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

func TestPredictCategoryFailures(t *testing.T) {
	social := mondayLogs(4, "social", func(week, i int) string { return "pleased" })
	noIntensity := mondayLogs(4, "health", func(week, i int) string { return "calm" })
	for _, rec := range noIntensity {
		delete(rec, "afterIntensity")
	}

	tests := []struct {
		name     string
		logs     []RawLog
		category Category
		wantErr  error
		wantMsg  string
	}{
		{"empty log set", nil, CategorySocial, ErrNoLogs, "No mood logs data received"},
		{"no rows for category", social, CategoryHealth, ErrNoDataForCategory, "No data found for health category"},
		{"field absent from every row", noIntensity, CategoryHealth, ErrMissingRequiredField, "Missing required field 'afterIntensity' in health data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Predict(tt.logs, tt.category, testNow)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
			if !IsDataFailure(err) {
				t.Error("expected a data failure")
			}
		})
	}
}

func TestPredictIsIdempotent(t *testing.T) {
	logs := mondayLogs(4, "activity", func(week, i int) string {
		return Emotions[(week*3+i)%len(Emotions)].String()
	})

	first, err := Predict(logs, CategoryActivity, testNow)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	second, err := Predict(logs, CategoryActivity, testNow)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("outputs differ:\n%s\n%s", a, b)
	}
}

func TestPredictIsDeterministicWithFractionalIntensities(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 40; trial++ {
		var logs []RawLog
		for _, monday := range windowMondays {
			for i := 0; i < 5; i++ {
				emotion := Emotions[rng.Intn(len(Emotions))].String()
				intensity := float64(rng.Intn(500)+1) / 100
				logs = append(logs, moodLog(monday.Add(time.Duration(8+i)*time.Hour), "social", emotion, "negative", intensity, "walk"))
			}
		}

		first, err := Predict(logs, CategorySocial, testNow)
		if err != nil {
			t.Fatalf("trial %d: Predict: %v", trial, err)
		}
		want, _ := json.Marshal(first)

		for run := 0; run < 50; run++ {
			again, err := Predict(logs, CategorySocial, testNow)
			if err != nil {
				t.Fatalf("trial %d run %d: Predict: %v", trial, run, err)
			}
			got, _ := json.Marshal(again)
			if string(got) != string(want) {
				t.Fatalf("trial %d run %d: output changed:\n%s\n%s", trial, run, want, got)
			}
		}
	}
}

func TestConfidenceNeverExceedsCap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		var logs []RawLog
		for _, monday := range windowMondays {
			for d := 0; d < 7; d++ {
				n := 1 + rng.Intn(3)
				for i := 0; i < n; i++ {
					ts := monday.AddDate(0, 0, d).Add(time.Duration(6+i) * time.Hour)
					emotion := Emotions[rng.Intn(3)].String()
					logs = append(logs, moodLog(ts, "activity", emotion, "negative", 1+rng.Intn(5), "x"))
				}
			}
		}

		forecast, err := Predict(logs, CategoryActivity, testNow)
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		for day, p := range forecast.Predictions {
			if p.NoData {
				continue
			}
			if p.Confidence < 0 || p.Confidence > ProbabilityCap {
				t.Fatalf("trial %d %s: confidence %v outside [0, %v]", trial, day, p.Confidence, ProbabilityCap)
			}
			var sum float64
			for _, v := range p.Breakdown {
				sum += v
			}
			if sum > 1.0+1e-9 {
				t.Fatalf("trial %d %s: breakdown sums to %v", trial, day, sum)
			}
		}
	}
}

func TestPredictAllIsolatesFailures(t *testing.T) {
	logs := mondayLogs(4, "social", func(week, i int) string { return "excited" })

	results := PredictAll(logs, testNow)
	if len(results) != len(Categories) {
		t.Fatalf("got %d results, want %d", len(results), len(Categories))
	}
	if results[CategorySocial].Forecast == nil {
		t.Errorf("social should have a forecast, got error %q", results[CategorySocial].Message)
	}
	for _, c := range []Category{CategoryActivity, CategoryHealth, CategorySleep} {
		r := results[c]
		if r.Forecast != nil || !errors.Is(r.Err, ErrNoDataForCategory) {
			t.Errorf("%s: expected no-data failure, got %+v", c, r)
		}
	}
}

func TestCheckAvailability(t *testing.T) {
	logs := append(
		mondayLogs(4, "social", func(week, i int) string { return "happy" }),
		mondayLogs(1, "sleep", func(week, i int) string { return "tense" })...,
	)

	got := CheckAvailability(logs, testNow)

	want := map[Category]Availability{
		CategoryActivity: {false, "No data found for activity category"},
		CategorySocial:   {true, "Sufficient data available"},
		CategoryHealth:   {false, "No data found for health category"},
		CategorySleep:    {false, "Insufficient data for sleep. Need at least 14 entries, found 4"},
	}
	for c, w := range want {
		if got[c] != w {
			t.Errorf("%s: got %+v, want %+v", c, got[c], w)
		}
	}
}

func TestPredictionJSONShape(t *testing.T) {
	logs := mondayLogs(4, "social", func(week, i int) string { return "happy" })
	forecast, err := Predict(logs, CategorySocial, testNow)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	raw, err := json.Marshal(forecast)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Category    string                    `json:"category"`
		Predictions map[string]map[string]any `json:"predictions"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Category != "social" {
		t.Errorf("category = %q", decoded.Category)
	}
	if decoded.Predictions["Monday"]["prediction"] != "happy" {
		t.Errorf("Monday prediction = %v", decoded.Predictions["Monday"]["prediction"])
	}
	if decoded.Predictions["Sunday"]["prediction"] != NoDataAvailable {
		t.Errorf("Sunday prediction = %v", decoded.Predictions["Sunday"]["prediction"])
	}

	var back Forecast
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal forecast: %v", err)
	}
	if p := back.Prediction(time.Monday); p.Emotion != EmotionHappy || p.NoData {
		t.Errorf("round-tripped Monday = %+v", p)
	}
	if !back.Prediction(time.Sunday).NoData {
		t.Error("round-tripped Sunday should be the sentinel")
	}
}

func TestScoreWeightsRecentWeeks(t *testing.T) {
	days := []*DayAggregate{
		{WeekNumber: 0, Intensities: map[Emotion][]float64{EmotionHappy: {2, 4}}},
		{WeekNumber: 3, Intensities: map[Emotion][]float64{EmotionSad: {2}}},
	}

	scores, ok := Score(days)
	if !ok {
		t.Fatal("expected scores")
	}
	if scores.TotalWeighted != 11 {
		t.Errorf("total = %v, want 11", scores.TotalWeighted)
	}
	if scores.Dominant != EmotionSad {
		t.Errorf("dominant = %s, want sad", scores.Dominant)
	}
	if math.Abs(scores.Confidence-8.0/11.0) > 1e-9 {
		t.Errorf("confidence = %v, want %v", scores.Confidence, 8.0/11.0)
	}
	b := scores.Breakdown()
	if b[EmotionSad] != 0.727 || b[EmotionHappy] != 0.273 {
		t.Errorf("breakdown = %v", b)
	}
}

func TestScoreAllZeroIntensity(t *testing.T) {
	days := []*DayAggregate{
		{WeekNumber: 1, Intensities: map[Emotion][]float64{EmotionCalm: {0, 0}}},
	}
	if _, ok := Score(days); ok {
		t.Error("expected no scores for zero mass")
	}
}

func TestResolveActivityPicksLatest(t *testing.T) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	days := []*DayAggregate{
		{Activities: map[Emotion][]ActivityCandidate{
			EmotionCalm:  {{"yoga", base}, {"reading", base.Add(2 * time.Hour)}},
			EmotionAngry: {{"commute", base.Add(48 * time.Hour)}},
		}},
		{Activities: map[Emotion][]ActivityCandidate{
			EmotionCalm: {{"", base.Add(time.Hour)}},
		}},
	}

	if got := ResolveActivity(days, EmotionCalm); got != "reading" {
		t.Errorf("calm activity = %q, want reading", got)
	}
	if got := ResolveActivity(days, EmotionHappy); got != UnknownActivity {
		t.Errorf("unseen emotion activity = %q, want %q", got, UnknownActivity)
	}
}
