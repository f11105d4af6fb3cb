package model

import "time"

// Venue represents a parish or chapel that hosts recurring events.  Venues
// are created by administrative intake and are never deleted; IsActive is
// cleared instead so that historical suggestions keep a valid reference.
//
// Fields:
//  ID           – primary key identifier (UUID string).
//  Name         – display name.
//  Address      – postal address shown to visitors.
//  Lat, Lng     – WGS84 coordinates in decimal degrees.
//  IsAccredited – set when the diocese verified the venue.
//  TimeZone     – IANA zone used to interpret event times.
//  IsActive     – false once the venue has been deactivated.
type Venue struct {
    ID           string    `json:"id"`                      // venues.id
    Name         string    `json:"name"`                    // venues.name
    Address      string    `json:"address"`                 // venues.address
    Lat          float64   `json:"lat"`                     // venues.lat
    Lng          float64   `json:"lng"`                     // venues.lng
    IsAccredited bool      `json:"is_accredited"`           // venues.is_accredited
    Phone        *string   `json:"phone,omitempty"`         // venues.phone (nullable)
    WhatsApp     *string   `json:"whatsapp,omitempty"`      // venues.whatsapp (nullable)
    InstagramURL *string   `json:"instagram_url,omitempty"` // venues.instagram_url (nullable)
    WebsiteURL   *string   `json:"website_url,omitempty"`   // venues.website_url (nullable)
    PixKey       *string   `json:"pix_key,omitempty"`       // venues.pix_key (nullable)
    Description  *string   `json:"description,omitempty"`   // venues.description (nullable)
    ImageURL     *string   `json:"image_url,omitempty"`     // venues.image_url (nullable)
    TimeZone     string    `json:"time_zone"`               // venues.time_zone
    IsActive     bool      `json:"-"`                       // venues.is_active
    CreatedAt    time.Time `json:"-"`                       // venues.created_at
    UpdatedAt    time.Time `json:"-"`                       // venues.updated_at
}
