package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/peterbourgon/ff/v4"

	"travelapp/internal/core"
	"travelapp/internal/itinerary"
)

func (r *runtime) tripsCommand() *ff.Command {
	createFlags := r.flags("create")
	var (
		destination = createFlags.StringLong("destination", "", "where to")
		start       = createFlags.StringLong("start", "", "first day, YYYY-MM-DD")
		end         = createFlags.StringLong("end", "", "last day, YYYY-MM-DD")
	)
	return &ff.Command{
		Name:      "trips",
		Usage:     "tripctl trips <list|show|create|delete> ...",
		ShortHelp: "manage trips",
		Flags:     r.flags("trips"),
		Subcommands: []*ff.Command{
			{
				Name:      "list",
				ShortHelp: "list your trips",
				Flags:     r.flags("list"),
				Exec: func(ctx context.Context, _ []string) error {
					trips, err := r.planner().Trips(ctx)
					if err != nil {
						return err
					}
					if len(trips) == 0 {
						fmt.Fprintln(r.stdout, "No trips yet.")
						return nil
					}
					tw := tabwriter.NewWriter(r.stdout, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tDESTINATION\tFROM\tTO\tDAYS")
					for _, t := range trips {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", t.ID, t.Destination, t.StartDate, t.EndDate, t.Days())
					}
					return tw.Flush()
				},
			},
			{
				Name:      "show",
				Usage:     "tripctl trips show ID",
				ShortHelp: "show a trip's itinerary and places",
				Flags:     r.flags("show"),
				Exec: func(ctx context.Context, args []string) error {
					if err := requireArgs(args, 1, "tripctl trips show ID"); err != nil {
						return err
					}
					p := r.planner()
					trip, err := p.Load(ctx, args[0])
					if err != nil {
						return err
					}
					days, err := p.Itinerary()
					if err != nil {
						return err
					}
					r.printTrip(trip, days)
					return nil
				},
			},
			{
				Name:      "create",
				Usage:     "tripctl trips create --destination NAME --start DATE --end DATE",
				ShortHelp: "create a trip",
				Flags:     createFlags,
				Exec: func(ctx context.Context, _ []string) error {
					trip, err := tripDraft(*destination, *start, *end)
					if err != nil {
						return err
					}
					created, err := r.planner().Create(ctx, trip)
					if err != nil {
						return err
					}
					fmt.Fprintf(r.stdout, "Created trip %s to %s (%d days)\n", created.ID, created.Destination, created.Days())
					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "tripctl trips delete ID",
				ShortHelp: "delete a trip (its expenses are kept)",
				Flags:     r.flags("delete"),
				Exec: func(ctx context.Context, args []string) error {
					if err := requireArgs(args, 1, "tripctl trips delete ID"); err != nil {
						return err
					}
					if _, err := r.planner().Delete(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(r.stdout, "Deleted trip %s\n", args[0])
					return nil
				},
			},
		},
	}
}

func tripDraft(destination, start, end string) (core.Trip, error) {
	const op = "create trip"
	s, err := core.ParseDate(start)
	if err != nil {
		return core.Trip{}, core.Invalid(op, err)
	}
	e, err := core.ParseDate(end)
	if err != nil {
		return core.Trip{}, core.Invalid(op, err)
	}
	return core.Trip{Destination: destination, StartDate: s, EndDate: e}, nil
}

func (r *runtime) printTrip(trip core.Trip, days []itinerary.Day) {
	fmt.Fprintf(r.stdout, "%s  %s to %s\n\n", trip.Destination, trip.StartDate, trip.EndDate)
	for _, d := range days {
		fmt.Fprintf(r.stdout, "  %s\n", d.Label)
	}
	if len(trip.Places) == 0 {
		fmt.Fprintln(r.stdout, "\nNo places yet.")
		return
	}
	fmt.Fprintln(r.stdout, "\nPlaces:")
	tw := tabwriter.NewWriter(r.stdout, 0, 4, 2, ' ', 0)
	for _, p := range trip.Places {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", p.ID, p.Name, p.Description, p.PhotoURL)
	}
	_ = tw.Flush()
}

func (r *runtime) placesCommand() *ff.Command {
	addFlags := r.flags("add")
	var (
		addTrip     = addFlags.StringLong("trip", "", "trip id")
		placeID     = addFlags.StringLong("place-id", "", "places-provider id (from search)")
		name        = addFlags.StringLong("name", "", "display name")
		description = addFlags.StringLong("description", "", "address or note")
		photoRef    = addFlags.StringLong("photo-ref", "", "photo reference (from search)")
	)
	removeFlags := r.flags("remove")
	removeTrip := removeFlags.StringLong("trip", "", "trip id")

	return &ff.Command{
		Name:      "places",
		Usage:     "tripctl places <search|add|remove|photo> ...",
		ShortHelp: "find places and attach them to trips",
		Flags:     r.flags("places"),
		Subcommands: []*ff.Command{
			{
				Name:      "search",
				Usage:     "tripctl places search QUERY...",
				ShortHelp: "search places by text",
				Flags:     r.flags("search"),
				Exec: func(ctx context.Context, args []string) error {
					if err := requireArgs(args, 1, "tripctl places search QUERY..."); err != nil {
						return err
					}
					places, err := r.app.API.SearchPlacesByText(ctx, strings.Join(args, " "))
					if err != nil {
						return err
					}
					if len(places) == 0 {
						fmt.Fprintln(r.stdout, "No places found.")
						return nil
					}
					tw := tabwriter.NewWriter(r.stdout, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "PLACE ID\tNAME\tADDRESS\tPHOTO REF")
					for _, p := range places {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.PlaceID, p.Name, p.Description, p.PhotoReference)
					}
					return tw.Flush()
				},
			},
			{
				Name:      "add",
				Usage:     "tripctl places add --trip ID --place-id ID --name NAME",
				ShortHelp: "add a place to a trip",
				Flags:     addFlags,
				Exec: func(ctx context.Context, _ []string) error {
					p := r.planner()
					if _, err := p.Load(ctx, *addTrip); err != nil {
						return err
					}
					stored, err := p.AddPlace(ctx, core.Place{
						PlaceID:        *placeID,
						Name:           *name,
						Description:    *description,
						PhotoReference: *photoRef,
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(r.stdout, "Added %s to trip %s (id %s)\n", stored.Name, stored.TripID, stored.ID)
					return nil
				},
			},
			{
				Name:      "remove",
				Usage:     "tripctl places remove --trip ID PLACE",
				ShortHelp: "remove a place from a trip",
				Flags:     removeFlags,
				Exec: func(ctx context.Context, args []string) error {
					if err := requireArgs(args, 1, "tripctl places remove --trip ID PLACE"); err != nil {
						return err
					}
					p := r.planner()
					if _, err := p.Load(ctx, *removeTrip); err != nil {
						return err
					}
					removed, err := p.RemovePlace(ctx, args[0])
					if err != nil {
						return err
					}
					if !removed {
						fmt.Fprintf(r.stdout, "Trip %s has no place %s\n", *removeTrip, args[0])
						return nil
					}
					fmt.Fprintf(r.stdout, "Removed place %s\n", args[0])
					return nil
				},
			},
			{
				Name:      "photo",
				Usage:     "tripctl places photo PLACE_ID",
				ShortHelp: "print a place's photo URL",
				Flags:     r.flags("photo"),
				Exec: func(ctx context.Context, args []string) error {
					if err := requireArgs(args, 1, "tripctl places photo PLACE_ID"); err != nil {
						return err
					}
					url, err := r.app.API.GetPlacePhotoByPlaceID(ctx, args[0])
					if err != nil {
						return err
					}
					if url == "" {
						fmt.Fprintln(r.stdout, "No photo available.")
						return nil
					}
					fmt.Fprintln(r.stdout, url)
					return nil
				},
			},
		},
	}
}

func (r *runtime) weatherCommand() *ff.Command {
	return &ff.Command{
		Name:      "weather",
		Usage:     "tripctl weather LATITUDE LONGITUDE",
		ShortHelp: "show the forecast for a coordinate",
		Flags:     r.flags("weather"),
		Exec: func(ctx context.Context, args []string) error {
			const usage = "tripctl weather LATITUDE LONGITUDE"
			if err := requireArgs(args, 2, usage); err != nil {
				return err
			}
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return core.Invalid("weather", fmt.Errorf("latitude %q: %w", args[0], err))
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return core.Invalid("weather", fmt.Errorf("longitude %q: %w", args[1], err))
			}
			f := r.app.API.WeatherOrUnavailable(ctx, lat, lon)
			fmt.Fprintf(r.stdout, "Area:     %s\nForecast: %s\nUpdated:  %s\n", f.Area, f.Forecast, f.Timestamp)
			return nil
		},
	}
}

func (r *runtime) locationsCommand() *ff.Command {
	fs := r.flags("locations")
	parent := fs.StringLong("parent", "", "list the sub-locations of this location id")
	return &ff.Command{
		Name:      "locations",
		Usage:     "tripctl locations [--parent ID]",
		ShortHelp: "list locations or their sub-locations",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			var (
				locs []core.Location
				err  error
			)
			if *parent != "" {
				locs, err = r.app.API.FetchSubLocations(ctx, *parent)
			} else {
				locs, err = r.app.API.FetchLocations(ctx)
			}
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(r.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tLAT\tLON")
			for _, l := range locs {
				fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\n", l.ID, l.Name, l.Latitude, l.Longitude)
			}
			return tw.Flush()
		},
	}
}

func (r *runtime) calendarCommand() *ff.Command {
	fs := r.flags("calendar")
	var (
		today       = fs.StringLong("today", "", "override today, YYYY-MM-DD")
		destination = fs.StringLong("destination", "", "create a trip for the picked range")
	)
	return &ff.Command{
		Name:      "calendar",
		Usage:     "tripctl calendar [--destination NAME] DATE DATE...",
		ShortHelp: "pick a date range the way the trip calendar does",
		LongHelp:  "Each DATE is one tap on the calendar. Dates from 30 days ago up to yesterday are disabled.",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, 1, "tripctl calendar DATE DATE..."); err != nil {
				return err
			}
			sel := itinerary.NewSelection(nil)
			if *today != "" {
				d, err := core.ParseDate(*today)
				if err != nil {
					return core.Invalid("calendar", err)
				}
				sel = itinerary.NewSelection(func() core.Date { return d })
			}
			for _, arg := range args {
				d, err := core.ParseDate(arg)
				if err != nil {
					return core.Invalid("calendar", err)
				}
				if err := sel.Pick(d); err != nil {
					fmt.Fprintf(r.stdout, "%s: %s\n", arg, core.UserMessage(err))
				}
			}
			fmt.Fprintf(r.stdout, "State: %s\n", sel.State())
			for _, d := range sel.Marked() {
				fmt.Fprintf(r.stdout, "  %s\n", d.Format(itinerary.LabelLayout))
			}
			if *destination == "" {
				return nil
			}
			draft, err := sel.Trip(*destination)
			if err != nil {
				return err
			}
			created, err := r.planner().Create(ctx, draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(r.stdout, "Created trip %s to %s\n", created.ID, created.Destination)
			return nil
		},
	}
}
