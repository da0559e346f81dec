package mood

import (
	"testing"
	"time"
)

func TestFormatRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       string
	}{
		{
			name:  "same month",
			start: time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC),
			want:  "February 02 – 15, 2026",
		},
		{
			name:  "same year",
			start: time.Date(2026, 1, 19, 9, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC),
			want:  "January 19 – February 15, 2026",
		},
		{
			name:  "across years",
			start: time.Date(2025, 12, 22, 9, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 1, 18, 9, 0, 0, 0, time.UTC),
			want:  "December 22, 2025 – January 18, 2026",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRange(tt.start, tt.end); got != tt.want {
				t.Errorf("FormatRange() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpcomingDate(t *testing.T) {
	wednesday := time.Date(2026, 2, 18, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		day  time.Weekday
		want time.Time
	}{
		{time.Wednesday, time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)},
		{time.Thursday, time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC)},
		{time.Sunday, time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC)},
		{time.Monday, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)},
		{time.Tuesday, time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := UpcomingDate(wednesday, tt.day); !got.Equal(tt.want) {
			t.Errorf("UpcomingDate(%s) = %v, want %v", tt.day, got, tt.want)
		}
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		in, want time.Time
	}{
		{time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 2, 18, 10, 0, 0, 0, time.UTC), time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 2, 22, 23, 59, 0, 0, time.UTC), time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := StartOfWeek(tt.in); !got.Equal(tt.want) {
			t.Errorf("StartOfWeek(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVocabularyParsing(t *testing.T) {
	if c, err := ParseCategory(" SLEEP "); err != nil || c != CategorySleep {
		t.Errorf("ParseCategory(SLEEP) = %v, %v", c, err)
	}
	if _, err := ParseCategory("work"); err == nil {
		t.Error("expected an error for an unknown category")
	}
	if e, ok := ParseEmotion("Disappointed"); !ok || e != EmotionDisappointed {
		t.Errorf("ParseEmotion(Disappointed) = %v, %v", e, ok)
	}
	if len(Emotions) != 10 {
		t.Errorf("vocabulary has %d emotions, want 10", len(Emotions))
	}
	for i, e := range Emotions {
		if e.Positive() != (i >= 5) {
			t.Errorf("%s: Positive() = %v", e, e.Positive())
		}
	}
}

func TestInspect(t *testing.T) {
	logs := []RawLog{
		{"category": "sleep", "afterValence": "positive", "afterIntensity": 3.0, "hrs": 7.0, "activity": nil},
		{"category": "social", "afterValence": "negative", "afterIntensity": "4"},
		{"category": "sleep", "afterIntensity": 2.0},
	}

	info := Inspect(logs)
	if info.TotalLogs != 3 {
		t.Errorf("total = %d", info.TotalLogs)
	}
	if info.DataTypes["hrs"] != "number" || info.DataTypes["activity"] != "null" || info.DataTypes["category"] != "string" {
		t.Errorf("data types = %v", info.DataTypes)
	}
	if len(info.UniqueCategories) != 2 || info.UniqueCategories[0] != "sleep" || info.UniqueCategories[1] != "social" {
		t.Errorf("categories = %v", info.UniqueCategories)
	}
	if len(info.UniqueAfterValences) != 3 || info.UniqueAfterValences[0] != "negative" {
		t.Errorf("valences = %v", info.UniqueAfterValences)
	}
	if len(info.SampleAfterIntensities) != 3 {
		t.Errorf("intensities = %v", info.SampleAfterIntensities)
	}

	empty := Inspect(nil)
	if empty.TotalLogs != 0 || empty.SampleLog != nil {
		t.Errorf("empty inspect = %+v", empty)
	}
}
