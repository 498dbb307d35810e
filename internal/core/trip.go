package core

import (
	"encoding/json"
	"errors"
	"strings"
)

// NotAvailable fills forecast fields that could not be fetched.
const NotAvailable = "N/A"

type (
	Trip struct {
		ID          string  `json:"id,omitempty"`
		UserID      string  `json:"userId,omitempty"`
		Destination string  `json:"destination"`
		StartDate   Date    `json:"startDate"`
		EndDate     Date    `json:"endDate"`
		Places      []Place `json:"places,omitempty"`
	}

	Place struct {
		ID             string `json:"id,omitempty"`
		PlaceID        string `json:"placeId"` // remote places-provider id
		TripID         string `json:"tripId,omitempty"`
		Name           string `json:"name"`
		Description    string `json:"description,omitempty"`
		PhotoReference string `json:"photoReference,omitempty"`
		PhotoURL       string `json:"photoUrl,omitempty"`
	}

	Location struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}

	Forecast struct {
		Area      string `json:"area"`
		Forecast  string `json:"forecast"`
		Timestamp string `json:"timestamp"`
	}
)

var (
	ErrEmptyDestination = errors.New("destination is required")
	ErrMissingDates     = errors.New("start and end dates are required")
	ErrDateOrder        = errors.New("start date must not be after end date")
	ErrEmptyPlace       = errors.New("place id and name are required")
)

// Validate checks what a new trip needs before it is sent to the backend.
func (t Trip) Validate() error {
	if strings.TrimSpace(t.Destination) == "" {
		return ErrEmptyDestination
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return ErrMissingDates
	}
	if t.StartDate.After(t.EndDate.Time) {
		return ErrDateOrder
	}
	return nil
}

// Days is the inclusive length of the trip.
func (t Trip) Days() int {
	if t.StartDate.IsZero() || t.EndDate.IsZero() || t.StartDate.After(t.EndDate.Time) {
		return 0
	}
	return t.StartDate.DaysUntil(t.EndDate) + 1
}

// PlaceIndex returns the position of the place with the given id, or -1.
func (t Trip) PlaceIndex(id string) int {
	for i, p := range t.Places {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (p Place) Validate() error {
	if strings.TrimSpace(p.PlaceID) == "" || strings.TrimSpace(p.Name) == "" {
		return ErrEmptyPlace
	}
	return nil
}

// UnavailableForecast is the placeholder shown when the forecast lookup fails.
func UnavailableForecast() Forecast {
	return Forecast{Area: NotAvailable, Forecast: NotAvailable, Timestamp: NotAvailable}
}

// Available reports whether f carries real data.
func (f Forecast) Available() bool {
	return f.Forecast != "" && f.Forecast != NotAvailable
}

type tripWire struct {
	ID             json.RawMessage `json:"id"`
	UserID         json.RawMessage `json:"userId"`
	UserIDSnake    json.RawMessage `json:"user_id"`
	Destination    string          `json:"destination"`
	Name           string          `json:"name"`
	StartDate      Date            `json:"startDate"`
	StartDateSnake Date            `json:"start_date"`
	EndDate        Date            `json:"endDate"`
	EndDateSnake   Date            `json:"end_date"`
	Places         []Place         `json:"places"`
}

func (t *Trip) UnmarshalJSON(data []byte) error {
	var w tripWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Trip{
		ID:          idString(w.ID),
		UserID:      firstNonEmpty(idString(w.UserID), idString(w.UserIDSnake)),
		Destination: firstNonEmpty(w.Destination, w.Name),
		StartDate:   w.StartDate,
		EndDate:     w.EndDate,
		Places:      w.Places,
	}
	if out.StartDate.IsZero() {
		out.StartDate = w.StartDateSnake
	}
	if out.EndDate.IsZero() {
		out.EndDate = w.EndDateSnake
	}
	*t = out
	return nil
}

type placeWire struct {
	ID                  json.RawMessage `json:"id"`
	PlaceID             string          `json:"placeId"`
	PlaceIDSnake        string          `json:"place_id"`
	TripID              json.RawMessage `json:"tripId"`
	TripIDSnake         json.RawMessage `json:"trip_id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Address             string          `json:"formatted_address"`
	PhotoReference      string          `json:"photoReference"`
	PhotoReferenceSnake string          `json:"photo_reference"`
	PhotoURL            string          `json:"photoUrl"`
}

func (p *Place) UnmarshalJSON(data []byte) error {
	var w placeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Place{
		ID:             idString(w.ID),
		PlaceID:        firstNonEmpty(w.PlaceID, w.PlaceIDSnake),
		TripID:         firstNonEmpty(idString(w.TripID), idString(w.TripIDSnake)),
		Name:           w.Name,
		Description:    firstNonEmpty(w.Description, w.Address),
		PhotoReference: firstNonEmpty(w.PhotoReference, w.PhotoReferenceSnake),
		PhotoURL:       w.PhotoURL,
	}
	return nil
}

type locationWire struct {
	ID        json.RawMessage `json:"id"`
	Name      string          `json:"name"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
}

func (l *Location) UnmarshalJSON(data []byte) error {
	var w locationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*l = Location{ID: idString(w.ID), Name: w.Name, Latitude: w.Latitude, Longitude: w.Longitude}
	return nil
}

type userWire struct {
	ID          json.RawMessage `json:"id"`
	FirstName   string          `json:"firstName"`
	FirstSnake  string          `json:"first_name"`
	LastName    string          `json:"lastName"`
	LastSnake   string          `json:"last_name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Gender      string          `json:"gender"`
	DateOfBirth Date            `json:"dob"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	var w userWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*u = User{
		ID:          idString(w.ID),
		FirstName:   firstNonEmpty(w.FirstName, w.FirstSnake),
		LastName:    firstNonEmpty(w.LastName, w.LastSnake),
		Email:       w.Email,
		Phone:       w.Phone,
		Gender:      w.Gender,
		DateOfBirth: w.DateOfBirth,
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
