// Package intake loads administrative seed files of venues and their weekly
// events into the store.  Seeds are YAML:
//
//	venues:
//	  - id: 6f1c...            # optional; makes re-runs skip the venue
//	    name: Catedral Metropolitana
//	    address: Praça Mal. Floriano Peixoto, Londrina - PR
//	    lat: -23.3105
//	    lng: -51.1593
//	    accredited: true
//	    events:
//	      - {category: Mass, day: 0, time: "08:00"}
package intake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/parish-events/internal/model"
	"github.com/iliyamo/parish-events/internal/repository"
)

// Seed is the top-level document.
type Seed struct {
	Venues []VenueSeed `yaml:"venues"`
}

// VenueSeed describes one venue and its schedule.
type VenueSeed struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Address     string      `yaml:"address"`
	Lat         float64     `yaml:"lat"`
	Lng         float64     `yaml:"lng"`
	Accredited  bool        `yaml:"accredited"`
	Phone       string      `yaml:"phone"`
	WhatsApp    string      `yaml:"whatsapp"`
	Instagram   string      `yaml:"instagram_url"`
	Website     string      `yaml:"website_url"`
	PixKey      string      `yaml:"pix_key"`
	Description string      `yaml:"description"`
	ImageURL    string      `yaml:"image_url"`
	TimeZone    string      `yaml:"time_zone"`
	Events      []EventSeed `yaml:"events"`
}

// EventSeed is one weekly event.  Day is 0 (Sunday) to 6 (Saturday) and
// Time is venue-local "HH:MM".
type EventSeed struct {
	Category string `yaml:"category"`
	Day      int    `yaml:"day"`
	Time     string `yaml:"time"`
}

// Result counts what Apply wrote.
type Result struct {
	Venues  int
	Events  int
	Skipped int
}

// Parse decodes a seed document.  Unknown keys are rejected so that typos
// do not silently drop fields.
func Parse(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Seed
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &s, nil
}

// LoadFile parses the seed at path.
func LoadFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Validate checks every event before anything is written, so a bad seed
// fails without leaving a half-imported schedule behind.
func (s *Seed) Validate() error {
	for i, v := range s.Venues {
		if strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("venues[%d]: name is required", i)
		}
		for j, e := range v.Events {
			if _, ok := model.ParseCategory(e.Category); !ok {
				return fmt.Errorf("venues[%d] %s events[%d]: unknown category %q", i, v.Name, j, e.Category)
			}
			if !model.ValidDayOfWeek(e.Day) {
				return fmt.Errorf("venues[%d] %s events[%d]: day must be between 0 and 6", i, v.Name, j)
			}
			if _, err := model.ParseTimeOfDay(e.Time); err != nil {
				return fmt.Errorf("venues[%d] %s events[%d]: %w", i, v.Name, j, err)
			}
		}
	}
	return nil
}

// Apply validates s and inserts its venues and events.  Venues whose id is
// already stored are skipped together with their events.  defaultTZ fills
// in venues without a time_zone.
func Apply(ctx context.Context, db *sql.DB, s *Seed, defaultTZ string, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res Result
	if err := s.Validate(); err != nil {
		return res, err
	}
	venues := repository.NewVenueRepo(db)
	events := repository.NewEventRepo(db)

	for _, vs := range s.Venues {
		if vs.ID != "" {
			_, err := venues.GetByID(ctx, vs.ID)
			if err == nil {
				logger.Info("venue already present, skipping", "id", vs.ID, "name", vs.Name)
				res.Skipped++
				continue
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return res, err
			}
		}
		v := vs.venue(defaultTZ)
		if err := importVenue(ctx, db, venues, events, v, vs.Events); err != nil {
			return res, fmt.Errorf("venue %q: %w", vs.Name, err)
		}
		res.Venues++
		res.Events += len(vs.Events)
		logger.Info("venue imported", "id", v.ID, "name", v.Name, "events", len(vs.Events))
	}
	return res, nil
}

// importVenue inserts v and its events in one transaction, so a failed
// event leaves no venue behind and a re-run can import it whole.
func importVenue(ctx context.Context, db *sql.DB, venues *repository.VenueRepo, events *repository.EventRepo, v *model.Venue, seeds []EventSeed) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return repository.WrapTxErr("begin intake", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := venues.CreateTx(ctx, tx, v); err != nil {
		return err
	}
	for _, es := range seeds {
		cat, _ := model.ParseCategory(es.Category)
		tod, _ := model.ParseTimeOfDay(es.Time)
		e := &model.Event{VenueID: v.ID, Category: cat, DayOfWeek: es.Day, Time: tod}
		if err := events.CreateTx(ctx, tx, e); err != nil {
			return fmt.Errorf("event %s %d %s: %w", es.Category, es.Day, es.Time, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return repository.WrapTxErr("commit intake", err)
	}
	committed = true
	return nil
}

func (vs VenueSeed) venue(defaultTZ string) *model.Venue {
	tz := strings.TrimSpace(vs.TimeZone)
	if tz == "" {
		tz = defaultTZ
	}
	return &model.Venue{
		ID:           vs.ID,
		Name:         vs.Name,
		Address:      vs.Address,
		Lat:          vs.Lat,
		Lng:          vs.Lng,
		IsAccredited: vs.Accredited,
		Phone:        optional(vs.Phone),
		WhatsApp:     optional(vs.WhatsApp),
		InstagramURL: optional(vs.Instagram),
		WebsiteURL:   optional(vs.Website),
		PixKey:       optional(vs.PixKey),
		Description:  optional(vs.Description),
		ImageURL:     optional(vs.ImageURL),
		TimeZone:     tz,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
