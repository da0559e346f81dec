package mood

import (
	"sort"
	"time"
)

// WindowedEntry is an entry tagged with its week inside the trailing window
// (0 = oldest, WindowWeeks-1 = most recent)
type WindowedEntry struct {
	Entry
	WeekNumber int
}

// Window is the dataset of one category bounded to the completed weeks
// before the current one, i.e. [FourWeeksAgo, CurrentWeekStart).
type Window struct {
	Category         Category
	Location         *time.Location
	CurrentWeekStart time.Time
	FourWeeksAgo     time.Time
	Entries          []WindowedEntry
}

// StartOfWeek returns midnight of the Monday on or before t, in t's location
func StartOfWeek(t time.Time) time.Time {
	monday := t.AddDate(0, 0, -daysFromMonday(t.Weekday()))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
}

// SelectWindow bounds normalized entries to the WindowWeeks completed weeks
// before the week containing now. Window arithmetic uses the timezone of the
// most recent entry. The in-progress week is excluded entirely.
func SelectWindow(entries []Entry, category Category, now time.Time) (*Window, error) {
	if len(entries) == 0 {
		return nil, &CategoryError{Kind: ErrNoDataForCategory, Category: category}
	}

	mostRecent := entries[0].Timestamp
	for _, e := range entries[1:] {
		if e.Timestamp.After(mostRecent) {
			mostRecent = e.Timestamp
		}
	}
	loc := mostRecent.Location()

	currentWeekStart := StartOfWeek(now.In(loc))
	fourWeeksAgo := currentWeekStart.AddDate(0, 0, -7*WindowWeeks)

	w := &Window{
		Category:         category,
		Location:         loc,
		CurrentWeekStart: currentWeekStart,
		FourWeeksAgo:     fourWeeksAgo,
	}

	for _, e := range entries {
		if !e.Timestamp.Before(currentWeekStart) || e.Timestamp.Before(fourWeeksAgo) {
			continue
		}
		days := int(e.Timestamp.Sub(fourWeeksAgo) / (24 * time.Hour))
		week := days / 7
		if week >= WindowWeeks {
			continue
		}
		w.Entries = append(w.Entries, WindowedEntry{Entry: e, WeekNumber: week})
	}

	if len(w.Entries) < MinEntries {
		return nil, &CategoryError{
			Kind:     ErrInsufficientData,
			Category: category,
			Found:    len(w.Entries),
			Required: MinEntries,
		}
	}

	sort.SliceStable(w.Entries, func(i, j int) bool {
		return w.Entries[i].Timestamp.Before(w.Entries[j].Timestamp)
	})
	return w, nil
}

// local converts t into the window's timezone
func (w *Window) local(t time.Time) time.Time {
	return t.In(w.Location)
}

// WeeksOfData counts the distinct weeks that hold at least one entry
func (w *Window) WeeksOfData() int {
	var seen [WindowWeeks]bool
	n := 0
	for _, e := range w.Entries {
		if !seen[e.WeekNumber] {
			seen[e.WeekNumber] = true
			n++
		}
	}
	return n
}
