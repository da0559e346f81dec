package mood

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawLog is one mood-log record as decoded from the upstream JSON
type RawLog map[string]any

// Raw field names read by the normalizer
const (
	FieldTimestamp      = "timestamp"
	FieldCategory       = "category"
	FieldAfterEmotion   = "afterEmotion"
	FieldAfterValence   = "afterValence"
	FieldAfterIntensity = "afterIntensity"
)

var requiredFields = []string{FieldTimestamp, FieldAfterEmotion, FieldAfterValence, FieldAfterIntensity}

// Entry is a validated, typed mood observation
type Entry struct {
	Timestamp time.Time
	Category  Category
	Emotion   Emotion
	Valence   Valence
	Intensity float64
	Activity  string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize coerces the records of one category into typed entries. Rows
// with an unparseable timestamp, an emotion outside the vocabulary, or a
// missing valence or intensity are dropped and counted, never escalated.
func Normalize(logs []RawLog, category Category) ([]Entry, int, error) {
	if len(logs) == 0 {
		return nil, 0, &CategoryError{Kind: ErrNoLogs, Category: category}
	}

	var rows []RawLog
	for _, rec := range logs {
		if c, err := ParseCategory(stringField(rec, FieldCategory)); err == nil && c == category {
			rows = append(rows, rec)
		}
	}
	if len(rows) == 0 {
		return nil, 0, &CategoryError{Kind: ErrNoDataForCategory, Category: category}
	}

	for _, field := range requiredFields {
		if !anyHasField(rows, field) {
			return nil, 0, &CategoryError{Kind: ErrMissingRequiredField, Category: category, Field: field}
		}
	}

	entries := make([]Entry, 0, len(rows))
	dropped := 0
	for _, rec := range rows {
		entry, ok := normalizeRecord(rec, category)
		if !ok {
			dropped++
			continue
		}
		entries = append(entries, entry)
	}

	if dropped > 0 {
		log.Printf("Dropped %d malformed entries for %s", dropped, category)
	}
	if len(entries) == 0 {
		return nil, dropped, &CategoryError{Kind: ErrNoDataForCategory, Category: category}
	}
	return entries, dropped, nil
}

func normalizeRecord(rec RawLog, category Category) (Entry, bool) {
	ts, ok := parseTimestamp(rec[FieldTimestamp])
	if !ok {
		return Entry{}, false
	}

	emotion, ok := ParseEmotion(stringField(rec, FieldAfterEmotion))
	if !ok {
		return Entry{}, false
	}

	valence := stringField(rec, FieldAfterValence)
	if valence == "" {
		return Entry{}, false
	}

	intensity, ok := numericField(rec[FieldAfterIntensity])
	if !ok {
		return Entry{}, false
	}

	return Entry{
		Timestamp: ts,
		Category:  category,
		Emotion:   emotion,
		Valence:   parseValence(valence),
		Intensity: intensity,
		Activity:  primaryAttribute(rec, category),
	}, true
}

// primaryAttribute resolves the representative label through the category's
// attribute table; the first field holding a usable value wins.
func primaryAttribute(rec RawLog, category Category) string {
	for _, field := range primaryAttributes[category] {
		if label := labelOf(rec[field]); label != UnknownActivity {
			return label
		}
	}
	return UnknownActivity
}

func labelOf(v any) string {
	switch val := v.(type) {
	case nil:
		return UnknownActivity
	case string:
		s := strings.TrimSpace(val)
		switch strings.ToLower(s) {
		case "", "nan", "none", "null", "undefined":
			return UnknownActivity
		}
		return s
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return UnknownActivity
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func stringField(rec RawLog, field string) string {
	v, ok := rec[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
}

func numericField(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseTimestamp(v any) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	case float64:
		// epoch milliseconds
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(val)).UTC(), true
	case time.Time:
		return val, !val.IsZero()
	}
	return time.Time{}, false
}

func anyHasField(rows []RawLog, field string) bool {
	for _, rec := range rows {
		if _, ok := rec[field]; ok {
			return true
		}
	}
	return false
}

// Observation is the recorded emotion of one log, read without the fields
// the forecast needs
type Observation struct {
	Timestamp time.Time
	Emotion   Emotion
}

// Observations returns the emotion observations of a category in input
// order, skipping rows without a parseable timestamp or a known emotion
func Observations(logs []RawLog, category Category) []Observation {
	var out []Observation
	for _, rec := range logs {
		if c, err := ParseCategory(stringField(rec, FieldCategory)); err != nil || c != category {
			continue
		}
		ts, ok := parseTimestamp(rec[FieldTimestamp])
		if !ok {
			continue
		}
		emotion, ok := ParseEmotion(stringField(rec, FieldAfterEmotion))
		if !ok {
			continue
		}
		out = append(out, Observation{Timestamp: ts, Emotion: emotion})
	}
	return out
}
