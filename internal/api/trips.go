package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"travelapp/internal/core"
)

// FetchTrips lists the user's trips.
func (c *Client) FetchTrips(ctx context.Context, userID string) ([]core.Trip, error) {
	const op = "fetch trips"
	if strings.TrimSpace(userID) == "" {
		return nil, core.Invalid(op, core.ErrEmptyUser)
	}
	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodGet,
		path:        "/api/users/" + pathID(userID) + "/trips",
		failMessage: "Could not load your trips.",
	})
	if err != nil {
		return nil, err
	}
	raw := unwrap(body, "trips", "message")
	if !isJSONArray(raw) {
		return nil, c.formatError(ctx, op, errors.New("trips payload is not an array"))
	}
	var trips []core.Trip
	if err := c.decode(ctx, op, raw, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// FetchTrip reads one trip with its places.
func (c *Client) FetchTrip(ctx context.Context, tripID string) (core.Trip, error) {
	const op = "fetch trip"
	if strings.TrimSpace(tripID) == "" {
		return core.Trip{}, core.Invalid(op, errors.New("trip id is required"))
	}
	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodGet,
		path:        "/api/trips/" + pathID(tripID),
		failMessage: "Could not load the trip.",
	})
	if err != nil {
		return core.Trip{}, err
	}
	var trip core.Trip
	if err := c.decode(ctx, op, unwrap(body, "trip"), &trip); err != nil {
		return core.Trip{}, err
	}
	if trip.ID == "" {
		trip.ID = tripID
	}
	return trip, nil
}

type tripInput struct {
	Destination string    `json:"destination"`
	StartDate   core.Date `json:"startDate"`
	EndDate     core.Date `json:"endDate"`
}

// CreateTrip validates trip and creates it for the user.
func (c *Client) CreateTrip(ctx context.Context, userID string, trip core.Trip) (core.Trip, error) {
	const op = "create trip"
	if strings.TrimSpace(userID) == "" {
		return core.Trip{}, core.Invalid(op, core.ErrEmptyUser)
	}
	trip.Destination = strings.TrimSpace(trip.Destination)
	if err := trip.Validate(); err != nil {
		return core.Trip{}, core.Invalid(op, err)
	}

	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/api/users/" + pathID(userID) + "/trips",
		body:        tripInput{Destination: trip.Destination, StartDate: trip.StartDate, EndDate: trip.EndDate},
		failKind:    core.ErrRequest,
		failMessage: "Could not create the trip.",
	})
	if err != nil {
		return core.Trip{}, err
	}

	var created core.Trip
	if err := c.decode(ctx, op, unwrap(body, "trip", "message"), &created); err != nil {
		return core.Trip{}, err
	}
	if created.ID == "" {
		return core.Trip{}, c.formatError(ctx, op, errors.New("created trip has no id"))
	}
	if created.Destination == "" {
		created.Destination = trip.Destination
	}
	if created.StartDate.IsZero() {
		created.StartDate, created.EndDate = trip.StartDate, trip.EndDate
	}
	if created.UserID == "" {
		created.UserID = userID
	}
	return created, nil
}

// DeleteTripByID deletes a trip. Its expenses are kept.
func (c *Client) DeleteTripByID(ctx context.Context, tripID string) (bool, error) {
	const op = "delete trip"
	if strings.TrimSpace(tripID) == "" {
		return false, core.Invalid(op, errors.New("trip id is required"))
	}
	_, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodDelete,
		path:        "/api/trips/" + pathID(tripID),
		failKind:    core.ErrDelete,
		failMessage: "Could not delete the trip.",
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

type placeInput struct {
	TripID         string `json:"tripId"`
	PlaceID        string `json:"placeId"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	PhotoReference string `json:"photoReference,omitempty"`
}

// CreatePlaceInTrip attaches a place to a trip and returns the stored place.
func (c *Client) CreatePlaceInTrip(ctx context.Context, userID string, place core.Place) (core.Place, error) {
	const op = "create place"
	if strings.TrimSpace(userID) == "" {
		return core.Place{}, core.Invalid(op, core.ErrEmptyUser)
	}
	if strings.TrimSpace(place.TripID) == "" {
		return core.Place{}, core.Invalid(op, errors.New("trip id is required"))
	}
	if err := place.Validate(); err != nil {
		return core.Place{}, core.Invalid(op, err)
	}

	in := placeInput{
		TripID:         place.TripID,
		PlaceID:        place.PlaceID,
		Name:           place.Name,
		Description:    place.Description,
		PhotoReference: place.PhotoReference,
	}
	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/api/users/" + pathID(userID) + "/places",
		body:        in,
		failKind:    core.ErrRequest,
		failMessage: "Could not add the place to your trip.",
	})
	if err != nil {
		return core.Place{}, err
	}
	var stored core.Place
	if err := c.decode(ctx, op, unwrap(body, "place", "message"), &stored); err != nil {
		return core.Place{}, err
	}
	if stored.ID == "" {
		return core.Place{}, c.formatError(ctx, op, errors.New("created place has no id"))
	}
	if stored.PlaceID == "" {
		stored.PlaceID = place.PlaceID
	}
	if stored.Name == "" {
		stored.Name = place.Name
	}
	if stored.TripID == "" {
		stored.TripID = place.TripID
	}
	if stored.Description == "" {
		stored.Description = place.Description
	}
	if stored.PhotoReference == "" {
		stored.PhotoReference = place.PhotoReference
	}
	if stored.PhotoURL == "" {
		stored.PhotoURL = place.PhotoURL
	}
	return stored, nil
}

// DeletePlaceByID removes a place from its trip.
func (c *Client) DeletePlaceByID(ctx context.Context, placeID string) (bool, error) {
	const op = "delete place"
	if strings.TrimSpace(placeID) == "" {
		return false, core.Invalid(op, errors.New("place id is required"))
	}
	_, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodDelete,
		path:        "/api/places/" + pathID(placeID),
		failKind:    core.ErrDelete,
		failMessage: "Could not remove the place.",
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
