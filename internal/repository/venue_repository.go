package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/parish-events/internal/geo"
	"github.com/iliyamo/parish-events/internal/model"
)

// VenueRepo encapsulates all queries against the venues table.  Venues are
// never deleted; Deactivate clears is_active instead.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo constructs a VenueRepo with the provided DB handle.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

const venueColumns = `id, name, address, lat, lng, is_accredited, phone, whatsapp, instagram_url,
	website_url, pix_key, description, image_url, time_zone, is_active, created_at, updated_at`

// Create validates and inserts a venue.  An empty ID is replaced with a new
// UUID; CreatedAt/UpdatedAt are set on the passed record.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
	return createVenue(ctx, r.db, v)
}

// CreateTx is Create inside a caller-owned transaction.
func (r *VenueRepo) CreateTx(ctx context.Context, tx *sql.Tx, v *model.Venue) error {
	return createVenue(ctx, tx, v)
}

func createVenue(ctx context.Context, q queryer, v *model.Venue) error {
	v.Name = strings.TrimSpace(v.Name)
	v.Address = strings.TrimSpace(v.Address)
	if v.Name == "" {
		return NewValidationError("name", "required")
	}
	if v.Address == "" {
		return NewValidationError("address", "required")
	}
	if err := (geo.Coordinate{Lat: v.Lat, Lng: v.Lng}).Validate(); err != nil {
		return InvalidInput("venue %q: %v", v.Name, err)
	}
	if v.TimeZone == "" {
		return NewValidationError("time_zone", "required")
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.CreatedAt = now()
	v.UpdatedAt = v.CreatedAt
	v.IsActive = true
	_, err := q.ExecContext(ctx, `INSERT INTO venues (`+venueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Name, v.Address, v.Lat, v.Lng, v.IsAccredited, v.Phone, v.WhatsApp, v.InstagramURL,
		v.WebsiteURL, v.PixKey, v.Description, v.ImageURL, v.TimeZone, v.IsActive, v.CreatedAt, v.UpdatedAt)
	return wrapErr("create venue", err)
}

// GetByID fetches a venue regardless of its active flag.  It returns
// ErrNotFound when no row matches.
func (r *VenueRepo) GetByID(ctx context.Context, id string) (*model.Venue, error) {
	return getVenue(ctx, r.db, id)
}

// GetByIDTx is GetByID inside a caller-owned transaction.
func (r *VenueRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Venue, error) {
	return getVenue(ctx, tx, id)
}

func getVenue(ctx context.Context, q queryer, id string) (*model.Venue, error) {
	row := q.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = ?`, id)
	v, err := scanVenue(row.Scan)
	if err != nil {
		return nil, wrapErr("get venue", err)
	}
	return v, nil
}

// ListActive returns every active venue ordered by name.
func (r *VenueRepo) ListActive(ctx context.Context) ([]model.Venue, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE is_active = ? ORDER BY name, id`, true)
	if err != nil {
		return nil, wrapErr("list venues", err)
	}
	defer rows.Close()
	out := make([]model.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows.Scan)
		if err != nil {
			return nil, wrapErr("scan venue", err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list venues", err)
	}
	return out, nil
}

// UpdateAddressTx replaces the canonical address.  Only accepted
// address_correction suggestions call it.
func (r *VenueRepo) UpdateAddressTx(ctx context.Context, tx *sql.Tx, id, address string) error {
	return updateOne(ctx, tx, "update venue address",
		`UPDATE venues SET address = ?, updated_at = ? WHERE id = ?`, address, now(), id)
}

// UpdatePhoneTx replaces the canonical phone.  Only accepted
// phone_correction suggestions call it.
func (r *VenueRepo) UpdatePhoneTx(ctx context.Context, tx *sql.Tx, id, phone string) error {
	return updateOne(ctx, tx, "update venue phone",
		`UPDATE venues SET phone = ?, updated_at = ? WHERE id = ?`, phone, now(), id)
}

// Deactivate hides a venue from the catalog.  An unknown id returns
// ErrNotFound.
func (r *VenueRepo) Deactivate(ctx context.Context, id string) error {
	return updateOne(ctx, r.db, "deactivate venue",
		`UPDATE venues SET is_active = ?, updated_at = ? WHERE id = ?`, false, now(), id)
}

// updateOne runs an UPDATE expected to touch exactly one row.
func updateOne(ctx context.Context, q queryer, op, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapErr(op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return wrapErr(op, sql.ErrNoRows)
	}
	return nil
}

func scanVenue(scan func(dest ...any) error) (*model.Venue, error) {
	var (
		v                                               model.Venue
		phone, whatsapp, insta, web, pix, desc, image sql.NullString
		created, updated                                dbTime
	)
	if err := scan(&v.ID, &v.Name, &v.Address, &v.Lat, &v.Lng, &v.IsAccredited, &phone, &whatsapp, &insta,
		&web, &pix, &desc, &image, &v.TimeZone, &v.IsActive, &created, &updated); err != nil {
		return nil, err
	}
	v.Phone = nullStr(phone)
	v.WhatsApp = nullStr(whatsapp)
	v.InstagramURL = nullStr(insta)
	v.WebsiteURL = nullStr(web)
	v.PixKey = nullStr(pix)
	v.Description = nullStr(desc)
	v.ImageURL = nullStr(image)
	v.CreatedAt = created.Time
	v.UpdatedAt = updated.Time
	return &v, nil
}
