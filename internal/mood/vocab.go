package mood

import (
	"fmt"
	"strings"
	"time"
)

// Fixed constants of the prediction contract
const (
	MinEntries      = 14
	WindowWeeks     = 4
	ProbabilityCap  = 0.90
	NoDataAvailable = "No data available"
	UnknownActivity = "Unknown"
)

// WeekWeights bias the scorer toward recent weeks (index 0 = oldest week)
var WeekWeights = [WindowWeeks]float64{1, 2, 3, 4}

// Category partitions the log into life domains
type Category int

const (
	CategoryActivity Category = iota
	CategorySocial
	CategoryHealth
	CategorySleep
)

// Categories lists every category in canonical order
var Categories = []Category{CategoryActivity, CategorySocial, CategoryHealth, CategorySleep}

var categoryNames = [...]string{"activity", "social", "health", "sleep"}

// primaryAttributes lists, per category, the raw fields that can carry the
// representative label of an entry, in lookup order.
var primaryAttributes = map[Category][]string{
	CategoryActivity: {"activity"},
	CategorySocial:   {"activity"},
	CategoryHealth:   {"activity"},
	CategorySleep:    {"hrs", "activity"},
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// MarshalText encodes the category by name
func (c Category) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= len(categoryNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(categoryNames[c]), nil
}

// UnmarshalText decodes a category name
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory resolves a category name, case-insensitively
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Emotion is one term of the fixed vocabulary. The numeric order is the
// vocabulary order, which also breaks ties between equally likely emotions.
type Emotion int

const (
	EmotionBored Emotion = iota
	EmotionSad
	EmotionDisappointed
	EmotionAngry
	EmotionTense
	EmotionCalm
	EmotionRelaxed
	EmotionPleased
	EmotionHappy
	EmotionExcited
)

// Emotions lists the vocabulary: five negative terms, then five positive ones
var Emotions = []Emotion{
	EmotionBored, EmotionSad, EmotionDisappointed, EmotionAngry, EmotionTense,
	EmotionCalm, EmotionRelaxed, EmotionPleased, EmotionHappy, EmotionExcited,
}

var emotionNames = [...]string{
	"bored", "sad", "disappointed", "angry", "tense",
	"calm", "relaxed", "pleased", "happy", "excited",
}

func (e Emotion) String() string {
	if e < 0 || int(e) >= len(emotionNames) {
		return fmt.Sprintf("emotion(%d)", int(e))
	}
	return emotionNames[e]
}

// Positive reports whether the emotion belongs to the positive half
func (e Emotion) Positive() bool {
	return e >= EmotionCalm
}

// MarshalText encodes the emotion by name
func (e Emotion) MarshalText() ([]byte, error) {
	if e < 0 || int(e) >= len(emotionNames) {
		return nil, fmt.Errorf("unknown emotion %d", int(e))
	}
	return []byte(emotionNames[e]), nil
}

// UnmarshalText decodes an emotion name
func (e *Emotion) UnmarshalText(text []byte) error {
	parsed, ok := ParseEmotion(string(text))
	if !ok {
		return fmt.Errorf("unknown emotion %q", string(text))
	}
	*e = parsed
	return nil
}

// ParseEmotion resolves a vocabulary term, case-insensitively
func ParseEmotion(s string) (Emotion, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range emotionNames {
		if name == s {
			return Emotion(i), true
		}
	}
	return 0, false
}

// Valence is the reported direction of a mood
type Valence int

const (
	ValenceNeutral Valence = iota
	ValencePositive
	ValenceNegative
)

func parseValence(s string) Valence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return ValencePositive
	case "negative":
		return ValenceNegative
	default:
		return ValenceNeutral
	}
}

func (v Valence) String() string {
	switch v {
	case ValencePositive:
		return "positive"
	case ValenceNegative:
		return "negative"
	default:
		return "neutral"
	}
}

// Weekdays in forecast order, Monday first
var Weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// daysFromMonday maps a weekday onto 0 (Monday) .. 6 (Sunday)
func daysFromMonday(d time.Weekday) int {
	return (int(d) + 6) % 7
}
