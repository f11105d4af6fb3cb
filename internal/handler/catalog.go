// Package handler exposes the HTTP boundary.  This file holds the public
// read endpoints: event listings, venue summaries, venue profiles, the
// calendar feed and per-event scores.  None of them require a voter id.
package handler

import (
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/parish-events/internal/geo"
    "github.com/iliyamo/parish-events/internal/model"
    "github.com/iliyamo/parish-events/internal/service"
)

var errBadOrigin = errors.New("lat and lng must both be valid numbers")

// CatalogHandler serves catalog queries.
type CatalogHandler struct {
    Catalog *service.Catalog
    Votes   *service.VoteLedger
}

// ListEvents handles GET /v1/events.
//
// Query: lat, lng (both or neither), categories (comma separated),
// day (0-6), time_of_day (morning|afternoon|evening), official_only.
func (h *CatalogHandler) ListEvents(c echo.Context) error {
    origin, err := parseOrigin(c)
    if err != nil {
        return badRequest(c, err.Error())
    }
    var f service.Filters
    if raw := strings.TrimSpace(c.QueryParam("categories")); raw != "" {
        for _, part := range strings.Split(raw, ",") {
            cat, ok := model.ParseCategory(part)
            if !ok {
                return badRequest(c, "unknown category "+strconv.Quote(strings.TrimSpace(part)))
            }
            f.Categories = append(f.Categories, cat)
        }
    }
    if raw := c.QueryParam("day"); raw != "" {
        d, err := strconv.Atoi(raw)
        if err != nil || !model.ValidDayOfWeek(d) {
            return badRequest(c, "day must be an integer between 0 and 6")
        }
        f.DayOfWeek = &d
    }
    if raw := c.QueryParam("time_of_day"); raw != "" {
        b, ok := model.ParseTimeBucket(raw)
        if !ok {
            return badRequest(c, "time_of_day must be morning, afternoon or evening")
        }
        f.TimeOfDay = &b
    }
    if raw := c.QueryParam("official_only"); raw != "" {
        v, err := strconv.ParseBool(raw)
        if err != nil {
            return badRequest(c, "official_only must be a boolean")
        }
        f.OfficialOnly = v
    }

    views, err := h.Catalog.ListEvents(c.Request().Context(), origin, f)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": views, "count": len(views)})
}

// NearestVenues handles GET /v1/venues/nearest?lat&lng&day.
func (h *CatalogHandler) NearestVenues(c echo.Context) error {
    origin, err := parseOrigin(c)
    if err != nil {
        return badRequest(c, err.Error())
    }
    day, err := strconv.Atoi(c.QueryParam("day"))
    if err != nil || !model.ValidDayOfWeek(day) {
        return badRequest(c, "day must be an integer between 0 and 6")
    }
    venues, err := h.Catalog.NearestVenuesGroupedByNextEvent(c.Request().Context(), origin, day)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": venues, "count": len(venues)})
}

// VenueProfile handles GET /v1/venues/:id.
func (h *CatalogHandler) VenueProfile(c echo.Context) error {
    p, err := h.Catalog.GetVenueProfile(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, p)
}

// VenueCalendar handles GET /v1/venues/:id/calendar.ics.
func (h *CatalogHandler) VenueCalendar(c echo.Context) error {
    feed, err := h.Catalog.VenueCalendar(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}

// EventScore handles GET /v1/events/:id/score.
func (h *CatalogHandler) EventScore(c echo.Context) error {
    s, err := h.Votes.Standing(c.Request().Context(), c.Param("id"))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, s)
}

// parseOrigin reads the optional lat/lng pair.  Supplying only one of them
// is an error.
func parseOrigin(c echo.Context) (*geo.Coordinate, error) {
    latRaw, lngRaw := c.QueryParam("lat"), c.QueryParam("lng")
    if latRaw == "" && lngRaw == "" {
        return nil, nil
    }
    if latRaw == "" || lngRaw == "" {
        return nil, errBadOrigin
    }
    lat, err1 := strconv.ParseFloat(latRaw, 64)
    lng, err2 := strconv.ParseFloat(lngRaw, 64)
    if err1 != nil || err2 != nil {
        return nil, errBadOrigin
    }
    o := geo.Coordinate{Lat: lat, Lng: lng}
    if err := o.Validate(); err != nil {
        return nil, err
    }
    return &o, nil
}
