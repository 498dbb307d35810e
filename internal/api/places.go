package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"travelapp/internal/core"
)

// FetchLocations lists the top-level destinations offered by the backend.
func (c *Client) FetchLocations(ctx context.Context) ([]core.Location, error) {
	const op = "fetch locations"
	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodGet,
		path:        "/api/get-locations",
		failMessage: "Could not load locations.",
	})
	if err != nil {
		return nil, err
	}
	return c.decodeLocations(ctx, op, body)
}

// FetchSubLocations lists the areas inside a location. The call is bounded
// by the sub-location timeout and fails with ErrTimeout when it elapses.
func (c *Client) FetchSubLocations(ctx context.Context, locationID string) ([]core.Location, error) {
	const op = "fetch sub-locations"
	if strings.TrimSpace(locationID) == "" {
		return nil, core.Invalid(op, errors.New("location id is required"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.subTimeout)
	defer cancel()

	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodGet,
		path:        "/api/sublocations/" + pathID(locationID),
		failMessage: "Could not load sub-locations.",
	})
	if err != nil {
		return nil, err
	}
	return c.decodeLocations(ctx, op, body)
}

func (c *Client) decodeLocations(ctx context.Context, op string, body []byte) ([]core.Location, error) {
	raw := unwrap(body, "locations", "sublocations", "message")
	if !isJSONArray(raw) {
		return nil, c.formatError(ctx, op, errors.New("locations payload is not an array"))
	}
	var locations []core.Location
	if err := c.decode(ctx, op, raw, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

type photoWire struct {
	PhotoReference string `json:"photo_reference"`
}

type placeResultWire struct {
	Photos []photoWire `json:"photos"`
}

// SearchPlacesByText runs a free-text place search. Results are cached and
// identical concurrent searches share one request.
func (c *Client) SearchPlacesByText(ctx context.Context, query string) ([]core.Place, error) {
	const op = "search places"
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, core.Invalid(op, errors.New("search query is required"))
	}
	key := strings.ToLower(query)
	if cached, ok := c.searchCache.Get(key); ok {
		return append([]core.Place(nil), cached...), nil
	}

	v, err, _ := c.inflight.Do("search:"+key, func() (any, error) {
		body, err := c.do(ctx, request{
			op:          op,
			method:      http.MethodGet,
			path:        "/api/places",
			query:       url.Values{"query": {query}},
			failMessage: "Could not search places.",
		})
		if err != nil {
			return nil, err
		}
		places, err := c.decodePlaces(ctx, op, body)
		if err != nil {
			return nil, err
		}
		c.searchCache.Set(key, places)
		return places, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]core.Place(nil), v.([]core.Place)...), nil
}

func (c *Client) decodePlaces(ctx context.Context, op string, body []byte) ([]core.Place, error) {
	raw := unwrap(body, "results", "places")
	if !isJSONArray(raw) {
		return nil, c.formatError(ctx, op, errors.New("results is not an array"))
	}
	var items []json.RawMessage
	if err := c.decode(ctx, op, raw, &items); err != nil {
		return nil, err
	}
	places := make([]core.Place, 0, len(items))
	for _, item := range items {
		var p core.Place
		if err := c.decode(ctx, op, item, &p); err != nil {
			return nil, err
		}
		if p.PhotoReference == "" {
			var extra placeResultWire
			if json.Unmarshal(item, &extra) == nil && len(extra.Photos) > 0 {
				p.PhotoReference = extra.Photos[0].PhotoReference
			}
		}
		if p.PhotoReference != "" && p.PhotoURL == "" {
			p.PhotoURL = c.PhotoURL(p.PhotoReference)
		}
		places = append(places, p)
	}
	return places, nil
}

// PhotoURL builds the backend photo URL for a photo reference.
func (c *Client) PhotoURL(reference string) string {
	q := url.Values{
		"photo_reference": {reference},
		"maxwidth":        {strconv.Itoa(c.photoMaxWidth)},
	}
	return c.baseURL + "/api/place-photo?" + q.Encode()
}

// GetPlacePhotoByPlaceID resolves the first photo of a place to a URL. A
// place without photos yields "" and no error.
func (c *Client) GetPlacePhotoByPlaceID(ctx context.Context, placeID string) (string, error) {
	const op = "get place photo"
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return "", core.Invalid(op, errors.New("place id is required"))
	}
	if cached, ok := c.photoCache.Get(placeID); ok {
		return cached, nil
	}

	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodGet,
		path:        "/api/place-details",
		query:       url.Values{"place_id": {placeID}},
		failMessage: "Could not load place details.",
	})
	if err != nil {
		return "", err
	}

	var details struct {
		Result *placeResultWire `json:"result"`
		placeResultWire
	}
	if err := c.decode(ctx, op, body, &details); err != nil {
		return "", err
	}
	photos := details.Photos
	if details.Result != nil {
		photos = details.Result.Photos
	}

	photoURL := ""
	if len(photos) > 0 && photos[0].PhotoReference != "" {
		photoURL = c.PhotoURL(photos[0].PhotoReference)
	} else {
		c.logger.DebugContext(ctx, "Place has no photo", "place_id", placeID)
	}
	c.photoCache.Set(placeID, photoURL)
	return photoURL, nil
}

// FetchWeatherData returns the forecast at a coordinate. Callers substitute
// core.UnavailableForecast on failure.
func (c *Client) FetchWeatherData(ctx context.Context, latitude, longitude float64) (core.Forecast, error) {
	const op = "fetch weather"
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return core.Forecast{}, core.Invalid(op, errors.New("coordinates out of range"))
	}

	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/api/forecast",
		body:        map[string]float64{"latitude": latitude, "longitude": longitude},
		failMessage: "Could not load the weather forecast.",
	})
	if err != nil {
		return core.Forecast{}, err
	}

	var f core.Forecast
	if err := c.decode(ctx, op, body, &f); err != nil {
		return core.Forecast{}, err
	}
	if f.Forecast == "" {
		return core.Forecast{}, c.formatError(ctx, op, errors.New("forecast is empty"))
	}
	return f, nil
}

// WeatherOrUnavailable is FetchWeatherData with the N/A placeholder
// substituted for any failure.
func (c *Client) WeatherOrUnavailable(ctx context.Context, latitude, longitude float64) core.Forecast {
	f, err := c.FetchWeatherData(ctx, latitude, longitude)
	if err != nil {
		return core.UnavailableForecast()
	}
	return f
}
