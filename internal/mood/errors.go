package mood

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLogs is returned when the supplied log set is empty
	ErrNoLogs = errors.New("no mood logs data received")
	// ErrNoDataForCategory is returned when no usable entry belongs to the category
	ErrNoDataForCategory = errors.New("no data for category")
	// ErrInsufficientData is returned when the trailing window holds fewer than MinEntries entries
	ErrInsufficientData = errors.New("insufficient data")
	// ErrMissingRequiredField is returned when no record of the set carries a required field
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrUnknownCategory is returned for names outside the category set
	ErrUnknownCategory = errors.New("unknown category")
)

// CategoryError describes why a category produced no forecast. It unwraps to
// one of the sentinel errors above.
type CategoryError struct {
	Kind     error
	Category Category
	Found    int
	Required int
	Field    string
}

func (e *CategoryError) Error() string {
	switch e.Kind {
	case ErrNoDataForCategory:
		return fmt.Sprintf("No data found for %s category", e.Category)
	case ErrInsufficientData:
		return fmt.Sprintf("Insufficient data for %s. Need at least %d entries, found %d", e.Category, e.Required, e.Found)
	case ErrMissingRequiredField:
		return fmt.Sprintf("Missing required field '%s' in %s data", e.Field, e.Category)
	case ErrNoLogs:
		return "No mood logs data received"
	default:
		return fmt.Sprintf("%s: %v", e.Category, e.Kind)
	}
}

func (e *CategoryError) Unwrap() error {
	return e.Kind
}
