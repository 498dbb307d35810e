package itinerary

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"travelapp/internal/amqp"
	"travelapp/internal/core"
	applog "travelapp/internal/log"
)

// photoWorkers bounds concurrent photo lookups while loading a trip.
const photoWorkers = 4

// Remote is the subset of the API client the planner needs.
type Remote interface {
	FetchTrips(ctx context.Context, userID string) ([]core.Trip, error)
	FetchTrip(ctx context.Context, tripID string) (core.Trip, error)
	CreateTrip(ctx context.Context, userID string, trip core.Trip) (core.Trip, error)
	DeleteTripByID(ctx context.Context, tripID string) (bool, error)
	CreatePlaceInTrip(ctx context.Context, userID string, place core.Place) (core.Place, error)
	DeletePlaceByID(ctx context.Context, placeID string) (bool, error)
	GetPlacePhotoByPlaceID(ctx context.Context, placeID string) (string, error)
	PhotoURL(reference string) string
}

// Identity resolves the signed-in user.
type Identity interface {
	UserID(ctx context.Context) (string, error)
}

var (
	ErrNoTrip         = core.NewError(core.ErrValidation, "planner", "Open a trip first.", errors.New("no trip loaded"))
	ErrDuplicatePlace = errors.New("place is already in this trip")
)

// Planner holds one open trip. Place additions are applied after the backend
// acknowledges them; removals are applied at once and rolled back if the
// backend refuses.
type Planner struct {
	remote    Remote
	identity  Identity
	publisher amqp.Publisher
	logger    *applog.Logger

	mu      sync.Mutex
	trip    *core.Trip
	pending map[string]bool // PlaceIDs with an add in flight
}

func NewPlanner(remote Remote, identity Identity, publisher amqp.Publisher, logger *applog.Logger) *Planner {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Planner{
		remote:    remote,
		identity:  identity,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentItinerary),
		pending:   make(map[string]bool),
	}
}

// Trips lists the user's trips.
func (p *Planner) Trips(ctx context.Context) ([]core.Trip, error) {
	userID, err := p.identity.UserID(ctx)
	if err != nil {
		return nil, err
	}
	return p.remote.FetchTrips(ctx, userID)
}

// Load fetches a trip and resolves its place photos in parallel. A failed
// photo lookup leaves that place without a photo.
func (p *Planner) Load(ctx context.Context, tripID string) (core.Trip, error) {
	trip, err := p.remote.FetchTrip(ctx, tripID)
	if err != nil {
		return core.Trip{}, err
	}
	p.resolvePhotos(ctx, trip.Places)

	p.mu.Lock()
	p.trip = &trip
	p.mu.Unlock()
	p.logger.DebugContext(ctx, "Trip loaded", applog.FieldTripID, trip.ID, "places", len(trip.Places))
	return cloneTrip(trip), nil
}

func (p *Planner) resolvePhotos(ctx context.Context, places []core.Place) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(photoWorkers)
	for i := range places {
		place := &places[i]
		if place.PhotoURL != "" {
			continue
		}
		if place.PhotoReference != "" {
			place.PhotoURL = p.remote.PhotoURL(place.PhotoReference)
			continue
		}
		if place.PlaceID == "" {
			continue
		}
		g.Go(func() error {
			url, err := p.remote.GetPlacePhotoByPlaceID(gctx, place.PlaceID)
			if err != nil {
				p.logger.WarnContext(gctx, "Photo lookup failed",
					applog.FieldPlaceID, place.PlaceID,
					applog.FieldError, err)
				return nil
			}
			place.PhotoURL = url
			return nil
		})
	}
	_ = g.Wait()
}

// Create validates t and creates it remotely.
func (p *Planner) Create(ctx context.Context, t core.Trip) (core.Trip, error) {
	t.Destination = strings.TrimSpace(t.Destination)
	if err := t.Validate(); err != nil {
		return core.Trip{}, core.Invalid("create trip", err)
	}
	userID, err := p.identity.UserID(ctx)
	if err != nil {
		return core.Trip{}, err
	}
	created, err := p.remote.CreateTrip(ctx, userID, t)
	if err != nil {
		return core.Trip{}, err
	}

	p.mu.Lock()
	p.trip = &created
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "Trip created",
		applog.FieldTripID, created.ID,
		"destination", created.Destination,
		"days", created.Days())
	p.publish(ctx, amqp.KindTripCreated, created.ID, userID, created.ID)
	return cloneTrip(created), nil
}

// Trip returns a copy of the open trip.
func (p *Planner) Trip() (core.Trip, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.trip == nil {
		return core.Trip{}, false
	}
	return cloneTrip(*p.trip), true
}

// Itinerary is the day skeleton of the open trip.
func (p *Planner) Itinerary() ([]Day, error) {
	t, ok := p.Trip()
	if !ok {
		return nil, ErrNoTrip
	}
	return ExpandDateRange(t.StartDate, t.EndDate), nil
}

// AddPlace attaches place to the open trip. The local list changes only after
// the backend stored the place.
func (p *Planner) AddPlace(ctx context.Context, place core.Place) (core.Place, error) {
	const op = "add place"
	t, ok := p.Trip()
	if !ok {
		return core.Place{}, ErrNoTrip
	}
	if err := place.Validate(); err != nil {
		return core.Place{}, core.Invalid(op, err)
	}
	if err := p.reserve(t.ID, place.PlaceID); err != nil {
		if errors.Is(err, ErrNoTrip) {
			return core.Place{}, err
		}
		return core.Place{}, core.Invalid(op, err)
	}
	defer p.release(place.PlaceID)
	userID, err := p.identity.UserID(ctx)
	if err != nil {
		return core.Place{}, err
	}

	place.TripID = t.ID
	if place.PhotoURL == "" && place.PhotoReference != "" {
		place.PhotoURL = p.remote.PhotoURL(place.PhotoReference)
	}

	stored, err := p.remote.CreatePlaceInTrip(ctx, userID, place)
	if err != nil {
		return core.Place{}, err
	}

	p.mu.Lock()
	if p.trip != nil && p.trip.ID == t.ID && p.trip.PlaceIndex(stored.ID) < 0 {
		p.trip.Places = append(p.trip.Places, stored)
	}
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "Place added",
		applog.FieldTripID, t.ID,
		applog.FieldPlaceID, stored.ID)
	p.publish(ctx, amqp.KindPlaceAdded, stored.ID, userID, t.ID)
	return stored, nil
}

// reserve claims placeID for an add on the open trip. It fails when the trip
// already lists the place or another add for it is still in flight.
func (p *Planner) reserve(tripID, placeID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.trip == nil || p.trip.ID != tripID {
		return ErrNoTrip
	}
	if p.pending[placeID] || slices.ContainsFunc(p.trip.Places, func(existing core.Place) bool {
		return existing.PlaceID == placeID
	}) {
		return ErrDuplicatePlace
	}
	p.pending[placeID] = true
	return nil
}

func (p *Planner) release(placeID string) {
	p.mu.Lock()
	delete(p.pending, placeID)
	p.mu.Unlock()
}

// RemovePlace drops the place from the open trip immediately and deletes it
// remotely; if the backend fails the place is put back where it was.
// Removing an id the trip does not hold reports false.
func (p *Planner) RemovePlace(ctx context.Context, id string) (bool, error) {
	p.mu.Lock()
	if p.trip == nil {
		p.mu.Unlock()
		return false, ErrNoTrip
	}
	tripID := p.trip.ID
	i := p.trip.PlaceIndex(id)
	if i < 0 {
		p.mu.Unlock()
		return false, nil
	}
	removed := p.trip.Places[i]
	p.trip.Places = slices.Delete(slices.Clone(p.trip.Places), i, i+1)
	p.mu.Unlock()

	if _, err := p.remote.DeletePlaceByID(ctx, id); err != nil {
		p.rollbackRemove(ctx, tripID, i, removed, err)
		return false, err
	}

	p.logger.InfoContext(ctx, "Place removed",
		applog.FieldTripID, tripID,
		applog.FieldPlaceID, id)
	p.publish(ctx, amqp.KindPlaceRemoved, id, "", tripID)
	return true, nil
}

func (p *Planner) rollbackRemove(ctx context.Context, tripID string, at int, place core.Place, cause error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.trip == nil || p.trip.ID != tripID || p.trip.PlaceIndex(place.ID) >= 0 {
		return
	}
	at = min(at, len(p.trip.Places))
	p.trip.Places = slices.Insert(slices.Clone(p.trip.Places), at, place)
	p.logger.WarnContext(ctx, "Place removal rolled back",
		applog.FieldOperation, applog.OpRollback,
		applog.FieldTripID, tripID,
		applog.FieldPlaceID, place.ID,
		applog.FieldError, cause)
}

// Delete removes a trip remotely. Its expenses are left untouched. Deleting
// the open trip closes it.
func (p *Planner) Delete(ctx context.Context, tripID string) (bool, error) {
	tripID = strings.TrimSpace(tripID)
	ok, err := p.remote.DeleteTripByID(ctx, tripID)
	if err != nil || !ok {
		return ok, err
	}

	p.mu.Lock()
	if p.trip != nil && p.trip.ID == tripID {
		p.trip = nil
	}
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "Trip deleted", applog.FieldTripID, tripID)
	p.publish(ctx, amqp.KindTripDeleted, tripID, "", tripID)
	return true, nil
}

func (p *Planner) publish(ctx context.Context, kind amqp.Kind, entityID, userID, tripID string) {
	if p.publisher == nil {
		p.logger.WarnContext(ctx, "AMQP publisher not available, skipping change message", "kind", string(kind))
		return
	}
	if userID == "" {
		userID, _ = p.identity.UserID(ctx)
	}
	if err := p.publisher.Publish(ctx, amqp.NewChangeMessage(kind, entityID, userID, tripID)); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish change message",
			"kind", string(kind),
			applog.FieldError, err)
	}
}

func cloneTrip(t core.Trip) core.Trip {
	t.Places = slices.Clone(t.Places)
	return t
}
