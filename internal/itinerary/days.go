// Package itinerary models a trip's day-by-day skeleton, the calendar range
// picker used to create trips, and the planner that keeps a trip's places in
// step with the backend.
package itinerary

import "travelapp/internal/core"

// LabelLayout renders a day as e.g. "Fri, 13/09".
const LabelLayout = "Mon, 02/01"

// Day is one section of an itinerary.
type Day struct {
	Date  core.Date
	Label string
}

// ExpandDateRange lists every day from start to end inclusive. It returns
// nil when start is after end or either date is missing.
func ExpandDateRange(start, end core.Date) []Day {
	if start.IsZero() || end.IsZero() || start.After(end.Time) {
		return nil
	}
	n := start.DaysUntil(end) + 1
	days := make([]Day, 0, n)
	for d := start; !d.After(end.Time); d = d.AddDays(1) {
		days = append(days, Day{Date: d, Label: d.Format(LabelLayout)})
	}
	return days
}

// Labels returns only the display labels of days.
func Labels(days []Day) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Label
	}
	return out
}
