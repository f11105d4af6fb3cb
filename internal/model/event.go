package model

import (
    "fmt"
    "strconv"
    "strings"
    "time"
)

// Category enumerates the kinds of recurring events a venue can host.
type Category string

const (
    CategoryMass       Category = "Mass"
    CategoryConfession Category = "Confession"
    CategoryAdoration  Category = "Adoration"
    CategoryRosary     Category = "Rosary"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryMass, CategoryConfession, CategoryAdoration, CategoryRosary}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, bool) {
    for _, c := range Categories {
        if strings.EqualFold(string(c), strings.TrimSpace(s)) {
            return c, true
        }
    }
    return "", false
}

// Event is one weekly occurrence at a venue.  Time is venue-local with no
// zone attached; the owning venue's TimeZone gives it meaning.
//
// Fields:
//  ID                – primary key identifier (UUID string).
//  VenueID           – owning venue.
//  Category          – Mass, Confession, Adoration or Rosary.
//  DayOfWeek         – 0 = Sunday .. 6 = Saturday.
//  Time              – time of day, minutes precision.
//  VerificationScore – running sum of up (+1) and down (-1) votes.
type Event struct {
    ID                string    `json:"id"`                 // events.id
    VenueID           string    `json:"venue_id"`           // events.venue_id
    Category          Category  `json:"category"`           // events.category
    DayOfWeek         int       `json:"day_of_week"`        // events.day_of_week
    Time              TimeOfDay `json:"time"`               // events.time_of_day
    VerificationScore int       `json:"verification_score"` // events.verification_score
    CreatedAt         time.Time `json:"-"`                  // events.created_at
    UpdatedAt         time.Time `json:"-"`                  // events.updated_at
}

// ValidDayOfWeek reports whether d is within 0..6.
func ValidDayOfWeek(d int) bool { return d >= 0 && d <= 6 }

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM" and "HH:MM:SS" (seconds are dropped).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
    s = strings.TrimSpace(s)
    parts := strings.Split(s, ":")
    if len(parts) < 2 || len(parts) > 3 || len(parts[0]) != 2 || len(parts[1]) != 2 {
        return 0, fmt.Errorf("time must be HH:MM, got %q", s)
    }
    h, err := strconv.Atoi(parts[0])
    if err != nil || h < 0 || h > 23 {
        return 0, fmt.Errorf("invalid hour in %q", s)
    }
    m, err := strconv.Atoi(parts[1])
    if err != nil || m < 0 || m > 59 {
        return 0, fmt.Errorf("invalid minute in %q", s)
    }
    return TimeOfDay(h*60 + m), nil
}

// Hour returns the hour component (0..23).
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component (0..59).
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String renders the time as HH:MM.
func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()) }

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(b []byte) error {
    v, err := ParseTimeOfDay(string(b))
    if err != nil {
        return err
    }
    *t = v
    return nil
}

// TimeBucket is a coarse part-of-day filter.
type TimeBucket string

const (
    BucketMorning   TimeBucket = "morning"   // [06,12)
    BucketAfternoon TimeBucket = "afternoon" // [12,18)
    BucketEvening   TimeBucket = "evening"   // [18,22)
)

// ParseTimeBucket validates a bucket name.
func ParseTimeBucket(s string) (TimeBucket, bool) {
    switch TimeBucket(strings.ToLower(strings.TrimSpace(s))) {
    case BucketMorning:
        return BucketMorning, true
    case BucketAfternoon:
        return BucketAfternoon, true
    case BucketEvening:
        return BucketEvening, true
    }
    return "", false
}

// Contains reports whether t's hour falls inside the bucket.  Hours from
// 22:00 to 05:59 belong to no bucket.
func (b TimeBucket) Contains(t TimeOfDay) bool {
    h := t.Hour()
    switch b {
    case BucketMorning:
        return h >= 6 && h < 12
    case BucketAfternoon:
        return h >= 12 && h < 18
    case BucketEvening:
        return h >= 18 && h < 22
    }
    return false
}
