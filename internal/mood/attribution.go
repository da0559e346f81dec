package mood

// ResolveActivity returns the activity of the most recent observation of the
// given emotion across the matched days, or UnknownActivity.
func ResolveActivity(days []*DayAggregate, emotion Emotion) string {
	activity := UnknownActivity
	var latest *ActivityCandidate
	for _, day := range days {
		for i := range day.Activities[emotion] {
			c := &day.Activities[emotion][i]
			if latest == nil || c.Timestamp.After(latest.Timestamp) {
				latest = c
				activity = labelOf(c.Activity)
			}
		}
	}
	return activity
}

// ValenceAverage is the plain fraction of positive entries in a weekday
// bucket; week weights and intensities do not apply here.
func ValenceAverage(bucket []WindowedEntry) float64 {
	if len(bucket) == 0 {
		return 0
	}
	positive := 0
	for _, e := range bucket {
		if e.Valence == ValencePositive {
			positive++
		}
	}
	return float64(positive) / float64(len(bucket))
}
