package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
	_ "time/tzdata" // venue zones must resolve on hosts without zoneinfo

	"github.com/iliyamo/parish-events/internal/geo"
	"github.com/iliyamo/parish-events/internal/model"
	"github.com/iliyamo/parish-events/internal/repository"
	"github.com/iliyamo/parish-events/internal/trust"
)

const (
	minutesPerDay  = 24 * 60
	minutesPerWeek = 7 * minutesPerDay

	// startingSoonWindow is the largest minutesUntilStart that is reported.
	startingSoonWindow = 60
)

// Filters narrows ListEvents.  Zero values disable each filter.
type Filters struct {
	Categories   []model.Category
	DayOfWeek    *int
	TimeOfDay    *model.TimeBucket
	OfficialOnly bool
}

// EventView is an event with its venue and the values computed for the
// caller at query time.
type EventView struct {
	Event             model.Event          `json:"event"`
	Venue             model.Venue          `json:"venue"`
	DistanceMeters    *float64             `json:"distance_meters,omitempty"`
	Distance          string               `json:"distance,omitempty"`
	Classification    trust.Classification `json:"classification"`
	MinutesUntilStart *int                 `json:"minutes_until_start,omitempty"`
}

// VenueView summarises a venue by its earliest event of the day.
type VenueView struct {
	Venue          model.Venue `json:"venue"`
	DistanceMeters *float64    `json:"distance_meters,omitempty"`
	Distance       string      `json:"distance,omitempty"`
	NextEvent      EventView   `json:"next_event"`
}

// VenueProfile is a venue with its full weekly schedule.
type VenueProfile struct {
	Venue  model.Venue `json:"venue"`
	Events []EventView `json:"events"`
}

// Catalog builds ranked, filtered views over venues and events.  Scores are
// read straight from the store and classifications derived on each call.
type Catalog struct {
	events    *repository.EventRepo
	venues    *repository.VenueRepo
	defaultTZ *time.Location
	now       func() time.Time

	zones sync.Map // tz name -> *time.Location
}

// NewCatalog returns a catalog over db.  defaultTZ is used for venues whose
// zone cannot be loaded; an unknown name falls back to UTC.
func NewCatalog(db *sql.DB, defaultTZ string) *Catalog {
	loc, err := time.LoadLocation(defaultTZ)
	if err != nil || defaultTZ == "" {
		loc = time.UTC
	}
	return &Catalog{
		events:    repository.NewEventRepo(db),
		venues:    repository.NewVenueRepo(db),
		defaultTZ: loc,
		now:       time.Now,
	}
}

// ListEvents returns the events of active venues that pass f, ordered by
// distance from origin when given and by time of day otherwise.  The order
// is total: remaining ties fall through venue name, weekday, category and
// finally event id.
func (c *Catalog) ListEvents(ctx context.Context, origin *geo.Coordinate, f Filters) ([]EventView, error) {
	if err := validateOrigin(origin); err != nil {
		return nil, err
	}
	if f.DayOfWeek != nil && !model.ValidDayOfWeek(*f.DayOfWeek) {
		return nil, repository.InvalidInput("day_of_week must be between 0 and 6")
	}
	rows, err := readOnce(ctx, func(ctx context.Context) ([]repository.EventWithVenue, error) {
		return c.events.ListWithVenues(ctx, f.DayOfWeek)
	})
	if err != nil {
		return nil, err
	}

	categories := make(map[model.Category]bool, len(f.Categories))
	for _, cat := range f.Categories {
		categories[cat] = true
	}
	now := c.now()
	views := make([]EventView, 0, len(rows))
	for _, row := range rows {
		if len(categories) > 0 && !categories[row.Event.Category] {
			continue
		}
		if f.TimeOfDay != nil && !f.TimeOfDay.Contains(row.Event.Time) {
			continue
		}
		v := c.view(row.Event, row.Venue, origin, now)
		if f.OfficialOnly && v.Classification != trust.Official {
			continue
		}
		views = append(views, v)
	}
	sortEventViews(views, origin != nil)
	return views, nil
}

// NearestVenuesGroupedByNextEvent returns one entry per active venue with
// at least one event on day, carrying the earliest of those events.  With
// an origin, venues are ordered nearest first; without one, by the time of
// their first event.
func (c *Catalog) NearestVenuesGroupedByNextEvent(ctx context.Context, origin *geo.Coordinate, day int) ([]VenueView, error) {
	if err := validateOrigin(origin); err != nil {
		return nil, err
	}
	if !model.ValidDayOfWeek(day) {
		return nil, repository.InvalidInput("day_of_week must be between 0 and 6")
	}
	rows, err := readOnce(ctx, func(ctx context.Context) ([]repository.EventWithVenue, error) {
		return c.events.ListWithVenues(ctx, &day)
	})
	if err != nil {
		return nil, err
	}

	now := c.now()
	first := make(map[string]EventView)
	for _, row := range rows {
		v := c.view(row.Event, row.Venue, origin, now)
		cur, ok := first[row.Venue.ID]
		if !ok || earlierSameDay(v.Event, cur.Event) {
			first[row.Venue.ID] = v
		}
	}

	out := make([]VenueView, 0, len(first))
	for _, ev := range first {
		out = append(out, VenueView{
			Venue:          ev.Venue,
			DistanceMeters: ev.DistanceMeters,
			Distance:       ev.Distance,
			NextEvent:      ev,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if origin != nil && *a.DistanceMeters != *b.DistanceMeters {
			return *a.DistanceMeters < *b.DistanceMeters
		}
		if a.NextEvent.Event.Time != b.NextEvent.Event.Time {
			return a.NextEvent.Event.Time < b.NextEvent.Event.Time
		}
		if a.Venue.Name != b.Venue.Name {
			return a.Venue.Name < b.Venue.Name
		}
		return a.Venue.ID < b.Venue.ID
	})
	return out, nil
}

// GetVenueProfile returns an active venue and its schedule ordered by
// weekday then time.  Deactivated venues are reported as not found.
func (c *Catalog) GetVenueProfile(ctx context.Context, venueID string) (*VenueProfile, error) {
	venue, err := readOnce(ctx, func(ctx context.Context) (*model.Venue, error) {
		return c.venues.GetByID(ctx, venueID)
	})
	if err != nil {
		return nil, err
	}
	if !venue.IsActive {
		return nil, fmt.Errorf("venue %s: %w", venueID, repository.ErrNotFound)
	}
	events, err := readOnce(ctx, func(ctx context.Context) ([]model.Event, error) {
		return c.events.ListByVenue(ctx, venueID)
	})
	if err != nil {
		return nil, err
	}
	now := c.now()
	p := &VenueProfile{Venue: *venue, Events: make([]EventView, 0, len(events))}
	for _, e := range events {
		p.Events = append(p.Events, c.view(e, *venue, nil, now))
	}
	return p, nil
}

func (c *Catalog) view(e model.Event, v model.Venue, origin *geo.Coordinate, now time.Time) EventView {
	ev := EventView{
		Event:          e,
		Venue:          v,
		Classification: trust.Classify(v.IsAccredited, e.VerificationScore),
	}
	if origin != nil {
		// Stored venue coordinates were validated on intake.
		d, _ := geo.Distance(*origin, geo.Coordinate{Lat: v.Lat, Lng: v.Lng})
		ev.DistanceMeters = &d
		ev.Distance = geo.FormatDistance(d)
	}
	if m, ok := minutesUntilStart(e, now.In(c.location(v.TimeZone))); ok {
		ev.MinutesUntilStart = &m
	}
	return ev
}

// location resolves and caches a venue's zone.
func (c *Catalog) location(name string) *time.Location {
	if name == "" {
		return c.defaultTZ
	}
	if loc, ok := c.zones.Load(name); ok {
		return loc.(*time.Location)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = c.defaultTZ
	}
	c.zones.Store(name, loc)
	return loc
}

// minutesUntilStart returns the minutes from localNow (already expressed in
// the venue's zone, truncated to the minute) to the next occurrence of e.
// It reports ok only when the event starts within the next hour and has
// not started yet.
func minutesUntilStart(e model.Event, localNow time.Time) (int, bool) {
	nowMin := int(localNow.Weekday())*minutesPerDay + localNow.Hour()*60 + localNow.Minute()
	startMin := e.DayOfWeek*minutesPerDay + int(e.Time)
	diff := ((startMin-nowMin)%minutesPerWeek + minutesPerWeek) % minutesPerWeek
	if diff <= 0 || diff > startingSoonWindow {
		return 0, false
	}
	return diff, true
}

func earlierSameDay(a, b model.Event) bool {
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	if a.Category != b.Category {
		return a.Category < b.Category
	}
	return a.ID < b.ID
}

func sortEventViews(views []EventView, byDistance bool) {
	sort.Slice(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if byDistance && *a.DistanceMeters != *b.DistanceMeters {
			return *a.DistanceMeters < *b.DistanceMeters
		}
		if a.Event.Time != b.Event.Time {
			return a.Event.Time < b.Event.Time
		}
		if a.Venue.Name != b.Venue.Name {
			return a.Venue.Name < b.Venue.Name
		}
		if a.Event.DayOfWeek != b.Event.DayOfWeek {
			return a.Event.DayOfWeek < b.Event.DayOfWeek
		}
		if a.Event.Category != b.Event.Category {
			return a.Event.Category < b.Event.Category
		}
		return a.Event.ID < b.Event.ID
	})
}

func validateOrigin(origin *geo.Coordinate) error {
	if origin == nil {
		return nil
	}
	if err := origin.Validate(); err != nil {
		if errors.Is(err, geo.ErrInvalidCoordinate) {
			return repository.InvalidInput("origin: %v", err)
		}
		return err
	}
	return nil
}
