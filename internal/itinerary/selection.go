package itinerary

import (
	"errors"
	"time"

	"travelapp/internal/core"
)

// State of a calendar range selection.
type State int

const (
	NoSelection State = iota
	StartPicked
	RangeComplete
)

func (s State) String() string {
	switch s {
	case NoSelection:
		return "no-selection"
	case StartPicked:
		return "start-picked"
	case RangeComplete:
		return "range-complete"
	default:
		return "unknown"
	}
}

// DisabledWindow is how many days before today are not selectable.
const DisabledWindow = 30

var ErrDateDisabled = core.NewError(core.ErrValidation, "pick date", "This date can't be selected.",
	errors.New("date is in the disabled window"))

// Selection is the trip-creation range picker. The zero value is not usable;
// build one with NewSelection.
type Selection struct {
	today func() core.Date
	state State
	start core.Date
	end   core.Date
}

// NewSelection starts with nothing picked. A nil today uses the local clock.
func NewSelection(today func() core.Date) *Selection {
	if today == nil {
		today = core.Today
	}
	return &Selection{today: today}
}

func (s *Selection) State() State { return s.state }

// Disabled reports whether d falls in today-30 .. yesterday. Those days stay
// disabled regardless of the selection state.
func (s *Selection) Disabled(d core.Date) bool {
	today := s.today()
	from := today.AddDays(-DisabledWindow)
	return !d.Before(from.Time) && d.Before(today.Time)
}

// Pick applies one calendar tap. From NoSelection or RangeComplete it starts
// a new range at d; from StartPicked it completes the range, swapping the
// ends when d precedes the start.
func (s *Selection) Pick(d core.Date) error {
	d = core.DateOf(d.Time)
	if s.Disabled(d) {
		return ErrDateDisabled
	}
	switch s.state {
	case StartPicked:
		if d.Before(s.start.Time) {
			s.start, s.end = d, s.start
		} else {
			s.end = d
		}
		s.state = RangeComplete
	default:
		s.start, s.end = d, core.Date{}
		s.state = StartPicked
	}
	return nil
}

// Reset returns to NoSelection.
func (s *Selection) Reset() {
	s.state = NoSelection
	s.start, s.end = core.Date{}, core.Date{}
}

// Range returns the completed range.
func (s *Selection) Range() (start, end core.Date, ok bool) {
	if s.state != RangeComplete {
		return core.Date{}, core.Date{}, false
	}
	return s.start, s.end, true
}

// Marked lists every selected day in ascending order.
func (s *Selection) Marked() []core.Date {
	switch s.state {
	case StartPicked:
		return []core.Date{s.start}
	case RangeComplete:
		days := ExpandDateRange(s.start, s.end)
		out := make([]core.Date, len(days))
		for i, d := range days {
			out[i] = d.Date
		}
		return out
	default:
		return nil
	}
}

// IsMarked reports whether d is part of the current selection.
func (s *Selection) IsMarked(d core.Date) bool {
	switch s.state {
	case StartPicked:
		return d.Equal(s.start.Time)
	case RangeComplete:
		return !d.Before(s.start.Time) && !d.After(s.end.Time)
	default:
		return false
	}
}

// Trip builds a trip draft for a completed range.
func (s *Selection) Trip(destination string) (core.Trip, error) {
	start, end, ok := s.Range()
	if !ok {
		return core.Trip{}, core.Invalid("create trip", core.ErrMissingDates)
	}
	return core.Trip{Destination: destination, StartDate: start, EndDate: end}, nil
}

// TodayIn is a helper for tests and callers with a fixed clock.
func TodayIn(t time.Time) func() core.Date {
	d := core.DateOf(t)
	return func() core.Date { return d }
}
