package service

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/iliyamo/parish-events/internal/model"
	"github.com/iliyamo/parish-events/internal/trust"
)

// defaultEventDuration is the DTEND offset used in calendar feeds.  The
// schedule only records start times.
const defaultEventDuration = time.Hour

var weekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// VenueCalendar renders a venue's weekly schedule as an iCalendar feed.
// Each event becomes a VEVENT with a weekly RRULE whose DTSTART is the next
// occurrence in the venue's zone.
func (c *Catalog) VenueCalendar(ctx context.Context, venueID string) (string, error) {
	p, err := c.GetVenueProfile(ctx, venueID)
	if err != nil {
		return "", err
	}
	loc := c.location(p.Venue.TimeZone)
	now := c.now().In(loc)

	cal := ics.NewCalendarFor("parish-events")
	cal.SetMethod(ics.MethodPublish)
	cal.SetName(p.Venue.Name)
	cal.SetXWRTimezone(loc.String())

	for _, view := range p.Events {
		e := view.Event
		start, rule, err := weeklyRule(e, now)
		if err != nil {
			return "", fmt.Errorf("event %s: %w", e.ID, err)
		}
		vevent := cal.AddEvent(e.ID + "@parish-events")
		vevent.SetDtStampTime(e.UpdatedAt)
		vevent.SetProperty(ics.ComponentPropertyDtStart, start.Format("20060102T150405"), ics.WithTZID(loc.String()))
		vevent.SetProperty(ics.ComponentPropertyDtEnd, start.Add(defaultEventDuration).Format("20060102T150405"), ics.WithTZID(loc.String()))
		vevent.AddRrule(rule)
		vevent.SetSummary(fmt.Sprintf("%s - %s", e.Category, p.Venue.Name))
		vevent.SetLocation(p.Venue.Address)
		vevent.AddCategory(string(e.Category))
		vevent.SetDescription("Status: " + string(view.Classification))
		if view.Classification == trust.Unverified {
			vevent.SetStatus(ics.ObjectStatusTentative)
		} else {
			vevent.SetStatus(ics.ObjectStatusConfirmed)
		}
	}
	return cal.Serialize(), nil
}

// weeklyRule returns the first occurrence of e at or after now (both in the
// venue's zone) and the RRULE value that repeats it weekly.
func weeklyRule(e model.Event, now time.Time) (time.Time, string, error) {
	anchor := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -7)
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   anchor,
		Byweekday: []rrule.Weekday{weekdays[e.DayOfWeek]},
		Byhour:    []int{e.Time.Hour()},
		Byminute:  []int{e.Time.Minute()},
		Bysecond:  []int{0},
	})
	if err != nil {
		return time.Time{}, "", err
	}
	next := r.After(now, true)
	if next.IsZero() {
		return time.Time{}, "", fmt.Errorf("no occurrence after %s", now.Format(time.RFC3339))
	}
	rule := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{weekdays[e.DayOfWeek]},
	}
	return next, rule.RRuleString(), nil
}
