package tracking

import (
	"sort"

	"github.com/mrwolf/moodcast/internal/mood"
)

// Stats counts how often the actual mood landed in the predicted top ranks
type Stats struct {
	Top1   int `json:"top1Matches"`
	Top2   int `json:"top2Matches"`
	Top3   int `json:"top3Matches"`
	Missed int `json:"missedPredictions"`
	Total  int `json:"totalPredictions"`
}

func (s *Stats) add(o Stats) {
	s.Top1 += o.Top1
	s.Top2 += o.Top2
	s.Top3 += o.Top3
	s.Missed += o.Missed
	s.Total += o.Total
}

// DayComparison holds the per-category stats of one weekday
type DayComparison struct {
	Weekday    string           `json:"weekday"`
	Categories map[string]Stats `json:"categories"`
	Overall    Stats            `json:"overall"`
}

// Rank returns the position (0-based) of actual among the emotions ordered by
// descending probability, ties in vocabulary order. Emotions with zero
// probability are unranked and yield -1.
func Rank(probabilities map[string]float64, actual string) int {
	ranked := make([]mood.Emotion, 0, len(mood.Emotions))
	for _, e := range mood.Emotions {
		if probabilities[e.String()] > 0 {
			ranked = append(ranked, e)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return probabilities[ranked[i].String()] > probabilities[ranked[j].String()]
	})
	for i, e := range ranked {
		if e.String() == actual {
			return i
		}
	}
	return -1
}

// score classifies one cell. Cells with the sentinel prediction or an
// unknown actual are not counted.
func score(c Cell) (Stats, bool) {
	if c.Sentinel() || c.Actual == nil {
		return Stats{}, false
	}
	s := Stats{Total: 1}
	if c.Predicted == *c.Actual {
		s.Top1 = 1
		return s, true
	}
	switch Rank(c.Probabilities, *c.Actual) {
	case 1:
		s.Top2 = 1
	case 2:
		s.Top3 = 1
	default:
		s.Missed = 1
	}
	return s, true
}

// Compare aggregates the snapshots of one week per weekday and category
func Compare(snapshots []*Snapshot) []DayComparison {
	days := make([]DayComparison, 0, len(mood.Weekdays))
	for _, day := range mood.Weekdays {
		dc := DayComparison{Weekday: day.String(), Categories: make(map[string]Stats, len(mood.Categories))}
		for _, category := range mood.Categories {
			var total Stats
			for _, snap := range snapshots {
				if s, ok := score(snap.Predictions[category.String()][day.String()]); ok {
					total.add(s)
				}
			}
			dc.Categories[category.String()] = total
			dc.Overall.add(total)
		}
		days = append(days, dc)
	}
	return days
}
