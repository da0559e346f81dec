package mood

import "math"

// WeeklyWeightedTotals holds, per emotion, the weighted intensity mass
// accumulated in each week slot of the window
type WeeklyWeightedTotals map[Emotion]*[WindowWeeks]float64

// Scores is the outcome of the weighted scorer for one weekday bucket
type Scores struct {
	Totals        WeeklyWeightedTotals
	TotalWeighted float64
	Probabilities map[Emotion]float64 // capped, unrounded
	Dominant      Emotion
	Confidence    float64
}

// AccumulateWeighted folds every day into per-emotion week slots: each day
// contributes WeekWeights[week] times the mean intensity of each emotion it holds.
func AccumulateWeighted(days []*DayAggregate) WeeklyWeightedTotals {
	totals := make(WeeklyWeightedTotals)
	for _, day := range days {
		weight := WeekWeights[day.WeekNumber]
		for emotion, intensities := range day.Intensities {
			if len(intensities) == 0 {
				continue
			}
			slots, ok := totals[emotion]
			if !ok {
				slots = new([WindowWeeks]float64)
				totals[emotion] = slots
			}
			slots[day.WeekNumber] += weight * mean(intensities)
		}
	}
	return totals
}

// Score normalizes the weighted totals into capped probabilities and picks
// the dominant emotion. It reports false when there is no positive mass to
// normalize. Ties resolve to the emotion that comes first in vocabulary order.
func Score(days []*DayAggregate) (Scores, bool) {
	totals := AccumulateWeighted(days)

	// Summed in vocabulary order so the float result is the same on every run
	var total float64
	for _, emotion := range Emotions {
		if slots, ok := totals[emotion]; ok {
			total += sumSlots(slots)
		}
	}
	if total <= 0 {
		return Scores{}, false
	}

	s := Scores{
		Totals:        totals,
		TotalWeighted: total,
		Probabilities: make(map[Emotion]float64, len(totals)),
	}

	best := -1.0
	for _, emotion := range Emotions {
		slots, ok := totals[emotion]
		if !ok {
			continue
		}
		p := math.Min(sumSlots(slots)/total, ProbabilityCap)
		if p < 0 {
			p = 0
		}
		s.Probabilities[emotion] = p
		if p > best {
			best = p
			s.Dominant = emotion
		}
	}
	s.Confidence = best
	return s, true
}

// Breakdown expands the probabilities over the whole vocabulary, rounded
// to three decimals; unseen emotions are 0
func (s Scores) Breakdown() map[Emotion]float64 {
	breakdown := make(map[Emotion]float64, len(Emotions))
	for _, emotion := range Emotions {
		breakdown[emotion] = round(s.Probabilities[emotion], 3)
	}
	return breakdown
}

func sumSlots(slots *[WindowWeeks]float64) float64 {
	var sum float64
	for _, v := range slots {
		sum += v
	}
	return sum
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
