package tracking

import (
	"time"

	"github.com/mrwolf/moodcast/internal/mood"
)

// ResolveActual returns the observed mood of a category on the calendar date
// of day (in day's location). The most frequent emotion wins; a tie goes to
// the emotion of the most recent log. ok is false when nothing was logged.
func ResolveActual(logs []mood.RawLog, category mood.Category, day time.Time) (mood.Emotion, bool) {
	y, m, d := day.Date()
	loc := day.Location()

	counts := make(map[mood.Emotion]int)
	latest := make(map[mood.Emotion]time.Time)
	for _, obs := range mood.Observations(logs, category) {
		ts := obs.Timestamp.In(loc)
		if ly, lm, ld := ts.Date(); ly != y || lm != m || ld != d {
			continue
		}
		counts[obs.Emotion]++
		if ts.After(latest[obs.Emotion]) {
			latest[obs.Emotion] = ts
		}
	}
	if len(counts) == 0 {
		return 0, false
	}

	var best mood.Emotion
	found := false
	for _, e := range mood.Emotions {
		n, ok := counts[e]
		if !ok {
			continue
		}
		switch {
		case !found:
			best, found = e, true
		case n > counts[best]:
			best = e
		case n == counts[best] && latest[e].After(latest[best]):
			best = e
		}
	}
	return best, true
}
