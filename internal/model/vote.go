package model

import "time"

// VoteDirection is the sign of a crowd vote.
type VoteDirection string

const (
    VoteUp   VoteDirection = "up"
    VoteDown VoteDirection = "down"
)

// Valid reports whether d is up or down.
func (d VoteDirection) Valid() bool { return d == VoteUp || d == VoteDown }

// Delta is the score change applied by a vote in this direction.
func (d VoteDirection) Delta() int {
    if d == VoteUp {
        return 1
    }
    return -1
}

// Vote is an immutable crowd confirmation (or denial) of an event.  At most
// one vote exists per (EventID, VoterID); the store enforces it with a
// unique key.
type Vote struct {
    ID        string        `json:"id"`         // votes.id
    EventID   string        `json:"event_id"`   // votes.event_id
    VoterID   string        `json:"-"`          // votes.voter_id
    Direction VoteDirection `json:"direction"`  // votes.direction
    CreatedAt time.Time     `json:"created_at"` // votes.created_at
}
