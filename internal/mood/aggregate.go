package mood

import "time"

// ActivityCandidate is an (activity, timestamp) pair observed with an emotion
type ActivityCandidate struct {
	Activity  string
	Timestamp time.Time
}

// DayAggregate collects one calendar date of a weekday bucket
type DayAggregate struct {
	Date        time.Time // local midnight
	WeekNumber  int
	Intensities map[Emotion][]float64
	Activities  map[Emotion][]ActivityCandidate
}

// WeekdayBucket returns the windowed entries falling on the given local
// day-of-week, in chronological order
func (w *Window) WeekdayBucket(day time.Weekday) []WindowedEntry {
	var bucket []WindowedEntry
	for _, e := range w.Entries {
		if w.local(e.Timestamp).Weekday() == day {
			bucket = append(bucket, e)
		}
	}
	return bucket
}

// AggregateDays groups a weekday bucket by local calendar date. A date may
// contribute to several emotions when its logs disagree.
func (w *Window) AggregateDays(bucket []WindowedEntry) []*DayAggregate {
	var days []*DayAggregate
	index := make(map[time.Time]*DayAggregate)

	for _, e := range bucket {
		t := w.local(e.Timestamp)
		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, w.Location)

		day, ok := index[date]
		if !ok {
			day = &DayAggregate{
				Date:        date,
				WeekNumber:  e.WeekNumber,
				Intensities: make(map[Emotion][]float64),
				Activities:  make(map[Emotion][]ActivityCandidate),
			}
			index[date] = day
			days = append(days, day)
		}

		day.Intensities[e.Emotion] = append(day.Intensities[e.Emotion], e.Intensity)
		day.Activities[e.Emotion] = append(day.Activities[e.Emotion], ActivityCandidate{
			Activity:  e.Activity,
			Timestamp: e.Timestamp,
		})
	}
	return days
}
