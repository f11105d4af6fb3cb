// Package trust derives the label shown next to every event.  The label is
// recomputed on each read from the venue's accreditation and the event's
// current score; it is never stored.
package trust

// Classification is the three-level trust label.
type Classification string

const (
	Official   Classification = "official"
	Community  Classification = "community"
	Unverified Classification = "unverified"
)

// CommunityThreshold is the score at which crowd votes alone make an event
// trustworthy.
const CommunityThreshold = 5

// Classify returns Official for accredited venues regardless of score,
// Community once score reaches CommunityThreshold, and Unverified otherwise.
func Classify(venueAccredited bool, score int) Classification {
	if venueAccredited {
		return Official
	}
	if score >= CommunityThreshold {
		return Community
	}
	return Unverified
}
