// Package eligibility holds the pure functions that derive special-vote
// eligibility and venue/session assignment from a member's region and
// forum. The lookup tables are static configuration loaded at compile
// time and treated as read-only.
package eligibility

import "strings"

// Regions members belong to.
const (
	RegionNorthern = "Northern"
	RegionCentral  = "Central"
	RegionSouthern = "Southern"
)

// Members in these regions qualify for a special vote when they decline
// attendance.
var eligibleRegions = map[string]struct{}{
	RegionCentral:  {},
	RegionSouthern: {},
}

// Forums whose meetings were cancelled or folded into another venue.
// Members assigned there qualify for a special vote regardless of region.
var cancelledForums = map[string]struct{}{
	"Greymouth": {},
	"Timaru":    {},
	"Wairoa":    {},
}

// Canonical session labels, earliest first.
const (
	SessionMorning   = "morning"
	SessionAfternoon = "afternoon"
	SessionEvening   = "evening"
)

// venueSlots maps a venue to its available session slots in
// chronological order. Venues not listed run a single morning session.
var venueSlots = map[string][]string{
	"Auckland":     {SessionMorning, SessionAfternoon, SessionEvening},
	"Wellington":   {SessionMorning, SessionAfternoon},
	"Christchurch": {SessionMorning, SessionAfternoon},
	"Hamilton":     {SessionMorning, SessionAfternoon},
	"Dunedin":      {SessionMorning},
}

// Resolve maps a member's region and forum to special-vote eligibility
// and a venue assignment. Deterministic: identical inputs always yield
// identical outputs. The venue is the forum value verbatim; there is no
// capacity check.
func Resolve(region, forum string) (specialVoteEligible bool, assignedVenue string) {
	if _, ok := eligibleRegions[region]; ok {
		specialVoteEligible = true
	}
	if _, ok := cancelledForums[forum]; ok {
		specialVoteEligible = true
	}
	return specialVoteEligible, forum
}

// SessionSlots returns the session slots available at a venue, earliest
// first. Every venue has at least one slot.
func SessionSlots(venue string) []string {
	if slots, ok := venueSlots[venue]; ok {
		return slots
	}
	return []string{SessionMorning}
}

// ResolveSession maps a free-text time preference to a canonical session
// label for the venue. A preference that matches no slot at the venue
// falls back to the venue's earliest slot.
func ResolveSession(venue, preference string) string {
	slots := SessionSlots(venue)
	pref := strings.ToLower(strings.TrimSpace(preference))
	if pref != "" {
		for _, slot := range slots {
			if strings.Contains(pref, slot) {
				return slot
			}
		}
	}
	return slots[0]
}
