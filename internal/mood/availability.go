package mood

import "time"

const sufficientDataMessage = "Sufficient data available"

// Availability reports whether a category has enough data to forecast
type Availability struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// CheckAvailability runs normalization and the window gate for every
// category, without scoring
func CheckAvailability(logs []RawLog, now time.Time) map[Category]Availability {
	result := make(map[Category]Availability, len(Categories))
	for _, c := range Categories {
		if _, err := prepare(logs, c, now); err != nil {
			result[c] = Availability{Available: false, Message: err.Error()}
			continue
		}
		result[c] = Availability{Available: true, Message: sufficientDataMessage}
	}
	return result
}
