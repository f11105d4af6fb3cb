package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/parish-events/internal/model"
)

// EventRepo provides access to the events table.  verification_score is
// only ever changed through AddScoreTx, inside the same transaction that
// inserts the vote row.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// EventWithVenue is one row of the catalog join.
type EventWithVenue struct {
	Event model.Event
	Venue model.Venue
}

// Create inserts an event with a zero score.  The venue must exist.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	return createEvent(ctx, r.db, e)
}

// CreateTx is Create inside a caller-owned transaction, so the venue may
// have been inserted by the same transaction.
func (r *EventRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.Event) error {
	return createEvent(ctx, tx, e)
}

func createEvent(ctx context.Context, q queryer, e *model.Event) error {
	if _, ok := model.ParseCategory(string(e.Category)); !ok {
		return NewValidationError("category", "unknown category "+string(e.Category))
	}
	if !model.ValidDayOfWeek(e.DayOfWeek) {
		return NewValidationError("day_of_week", "must be between 0 and 6")
	}
	if e.Time < 0 || e.Time >= 24*60 {
		return NewValidationError("time", "must be between 00:00 and 23:59")
	}
	if _, err := getVenue(ctx, q, e.VenueID); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.VerificationScore = 0
	e.CreatedAt = now()
	e.UpdatedAt = e.CreatedAt
	_, err := q.ExecContext(ctx, `INSERT INTO events
		(id, venue_id, category, day_of_week, time_of_day, verification_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		e.ID, e.VenueID, string(e.Category), e.DayOfWeek, e.Time.String(), e.CreatedAt, e.UpdatedAt)
	return wrapErr("create event", err)
}

const eventColumns = `e.id, e.venue_id, e.category, e.day_of_week, e.time_of_day, e.verification_score, e.created_at, e.updated_at`

// GetByID fetches a single event.  It returns ErrNotFound when missing.
func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	return getEvent(ctx, r.db, id)
}

// GetByIDTx is GetByID inside a caller-owned transaction.
func (r *EventRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Event, error) {
	return getEvent(ctx, tx, id)
}

func getEvent(ctx context.Context, q queryer, id string) (*model.Event, error) {
	row := q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = ?`, id)
	e, err := scanEvent(row.Scan)
	if err != nil {
		return nil, wrapErr("get event", err)
	}
	return e, nil
}

// GetWithVenue loads an event and its venue in one query.
func (r *EventRepo) GetWithVenue(ctx context.Context, id string) (*EventWithVenue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+`, `+prefixed("v", venueColumns)+`
		FROM events e JOIN venues v ON v.id = e.venue_id WHERE e.id = ?`, id)
	ev, err := scanEventWithVenue(row.Scan)
	if err != nil {
		return nil, wrapErr("get event", err)
	}
	return ev, nil
}

// ListWithVenues joins every event of an active venue.  When day is non-nil
// only events on that weekday are returned.  Ordering is left to the
// catalog, which needs computed fields to sort.
func (r *EventRepo) ListWithVenues(ctx context.Context, day *int) ([]EventWithVenue, error) {
	q := `SELECT ` + eventColumns + `, ` + prefixed("v", venueColumns) + `
		FROM events e JOIN venues v ON v.id = e.venue_id
		WHERE v.is_active = ?`
	args := []any{true}
	if day != nil {
		q += ` AND e.day_of_week = ?`
		args = append(args, *day)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrapErr("list events", err)
	}
	defer rows.Close()
	out := make([]EventWithVenue, 0)
	for rows.Next() {
		ev, err := scanEventWithVenue(rows.Scan)
		if err != nil {
			return nil, wrapErr("scan event", err)
		}
		out = append(out, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list events", err)
	}
	return out, nil
}

// ListByVenue returns a venue's events ordered by weekday then time.
func (r *EventRepo) ListByVenue(ctx context.Context, venueID string) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events e
		WHERE e.venue_id = ? ORDER BY e.day_of_week, e.time_of_day, e.category, e.id`, venueID)
	if err != nil {
		return nil, wrapErr("list venue events", err)
	}
	defer rows.Close()
	out := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, wrapErr("scan event", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list venue events", err)
	}
	return out, nil
}

// AddScoreTx applies delta to verification_score and returns the new value.
// The increment happens in SQL so concurrent votes on the same event never
// lose an update.
func (r *EventRepo) AddScoreTx(ctx context.Context, tx *sql.Tx, id string, delta int) (int, error) {
	if err := updateOne(ctx, tx, "update score",
		`UPDATE events SET verification_score = verification_score + ?, updated_at = ? WHERE id = ?`,
		delta, now(), id); err != nil {
		return 0, err
	}
	var score int
	if err := tx.QueryRowContext(ctx, `SELECT verification_score FROM events WHERE id = ?`, id).Scan(&score); err != nil {
		return 0, wrapErr("read score", err)
	}
	return score, nil
}

// Score reads the stored verification score.
func (r *EventRepo) Score(ctx context.Context, id string) (int, error) {
	var score int
	err := r.db.QueryRowContext(ctx, `SELECT verification_score FROM events WHERE id = ?`, id).Scan(&score)
	if err != nil {
		return 0, wrapErr("read score", err)
	}
	return score, nil
}

// UpdateTimeTx rewrites the time of an event in place.  Only accepted
// time_correction suggestions call it.
func (r *EventRepo) UpdateTimeTx(ctx context.Context, tx *sql.Tx, id string, t model.TimeOfDay) error {
	return updateOne(ctx, tx, "update event time",
		`UPDATE events SET time_of_day = ?, updated_at = ? WHERE id = ?`, t.String(), now(), id)
}

// ScoreDrift lists events whose stored score differs from the sign-weighted
// sum of their vote rows, keyed by event id with the stored and counted
// values.
func (r *EventRepo) ScoreDrift(ctx context.Context) (map[string][2]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT e.id, e.verification_score,
			COALESCE(SUM(CASE WHEN v.direction = 'up' THEN 1 WHEN v.direction = 'down' THEN -1 ELSE 0 END), 0)
		FROM events e LEFT JOIN votes v ON v.event_id = e.id
		GROUP BY e.id, e.verification_score`)
	if err != nil {
		return nil, wrapErr("score drift", err)
	}
	defer rows.Close()
	drift := make(map[string][2]int)
	for rows.Next() {
		var (
			id             string
			stored, summed int
		)
		if err := rows.Scan(&id, &stored, &summed); err != nil {
			return nil, wrapErr("scan drift", err)
		}
		if stored != summed {
			drift[id] = [2]int{stored, summed}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("score drift", err)
	}
	return drift, nil
}

func scanEvent(scan func(dest ...any) error) (*model.Event, error) {
	var (
		e                model.Event
		category, tod    string
		created, updated dbTime
	)
	if err := scan(&e.ID, &e.VenueID, &category, &e.DayOfWeek, &tod, &e.VerificationScore, &created, &updated); err != nil {
		return nil, err
	}
	return finishEvent(&e, category, tod, created, updated)
}

func finishEvent(e *model.Event, category, tod string, created, updated dbTime) (*model.Event, error) {
	e.Category = model.Category(category)
	t, err := model.ParseTimeOfDay(tod)
	if err != nil {
		return nil, err
	}
	e.Time = t
	e.CreatedAt = created.Time
	e.UpdatedAt = updated.Time
	return e, nil
}

func scanEventWithVenue(scan func(dest ...any) error) (*EventWithVenue, error) {
	var (
		out                                             EventWithVenue
		category, tod                                   string
		eCreated, eUpdated, vCreated, vUpdated          dbTime
		phone, whatsapp, insta, web, pix, desc, image sql.NullString
	)
	e := &out.Event
	v := &out.Venue
	if err := scan(&e.ID, &e.VenueID, &category, &e.DayOfWeek, &tod, &e.VerificationScore, &eCreated, &eUpdated,
		&v.ID, &v.Name, &v.Address, &v.Lat, &v.Lng, &v.IsAccredited, &phone, &whatsapp, &insta,
		&web, &pix, &desc, &image, &v.TimeZone, &v.IsActive, &vCreated, &vUpdated); err != nil {
		return nil, err
	}
	if _, err := finishEvent(e, category, tod, eCreated, eUpdated); err != nil {
		return nil, err
	}
	v.Phone = nullStr(phone)
	v.WhatsApp = nullStr(whatsapp)
	v.InstagramURL = nullStr(insta)
	v.WebsiteURL = nullStr(web)
	v.PixKey = nullStr(pix)
	v.Description = nullStr(desc)
	v.ImageURL = nullStr(image)
	v.CreatedAt = vCreated.Time
	v.UpdatedAt = vUpdated.Time
	return &out, nil
}

// prefixed qualifies a comma separated column list with a table alias.
func prefixed(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
