package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   Money
	Count    int
}

// TripSummary is a compact spending summary for one trip (or the unassigned bucket).
type TripSummary struct {
	TripID     string
	Total      Money
	Budget     Money
	ByCategory []CategoryAmount
}
