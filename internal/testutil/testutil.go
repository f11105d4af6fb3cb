// Package testutil provides SQLite-backed fixtures shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parish-events/internal/database"
	"github.com/iliyamo/parish-events/internal/model"
	"github.com/iliyamo/parish-events/internal/repository"
)

// SetupTestDB opens a fresh SQLite file in a temp dir with the full schema
// applied by the same migration the server runs.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := database.Migrate(context.Background(), db, database.SQLite); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Londrina is the reference coordinate used across tests.
const (
	LondrinaLat = -23.3045
	LondrinaLng = -51.1696
)

// CreateVenue inserts an active venue at (lat, lng) in America/Sao_Paulo.
func CreateVenue(t *testing.T, db *sql.DB, name string, lat, lng float64, accredited bool) *model.Venue {
	t.Helper()
	v := &model.Venue{
		Name:         name,
		Address:      name + ", Londrina - PR",
		Lat:          lat,
		Lng:          lng,
		IsAccredited: accredited,
		TimeZone:     "America/Sao_Paulo",
	}
	if err := repository.NewVenueRepo(db).Create(context.Background(), v); err != nil {
		t.Fatalf("Failed to create venue %q: %v", name, err)
	}
	return v
}

// CreateEvent inserts an event at hhmm ("HH:MM") on day for venueID.
func CreateEvent(t *testing.T, db *sql.DB, venueID string, cat model.Category, day int, hhmm string) *model.Event {
	t.Helper()
	tod, err := model.ParseTimeOfDay(hhmm)
	if err != nil {
		t.Fatalf("Bad time %q: %v", hhmm, err)
	}
	e := &model.Event{VenueID: venueID, Category: cat, DayOfWeek: day, Time: tod}
	if err := repository.NewEventRepo(db).Create(context.Background(), e); err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	return e
}

// MakeRequest runs a request through e and returns the recorder.  body is
// JSON encoded when non-nil; headers are set as given.
func MakeRequest(t *testing.T, e *echo.Echo, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// DecodeJSON unmarshals a recorder body into v.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

// AssertStatus fails the test when the recorder code differs from want.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (%s): %s", rec.Code, want, http.StatusText(want), rec.Body.String())
	}
}
