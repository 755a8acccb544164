package eligibility

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		region       string
		forum        string
		wantEligible bool
		wantVenue    string
	}{
		{
			name:         "central region is eligible",
			region:       RegionCentral,
			forum:        "Wellington",
			wantEligible: true,
			wantVenue:    "Wellington",
		},
		{
			name:         "southern region is eligible",
			region:       RegionSouthern,
			forum:        "Dunedin",
			wantEligible: true,
			wantVenue:    "Dunedin",
		},
		{
			name:         "northern region is not eligible",
			region:       RegionNorthern,
			forum:        "Auckland",
			wantEligible: false,
			wantVenue:    "Auckland",
		},
		{
			name:         "cancelled forum overrides region",
			region:       RegionNorthern,
			forum:        "Greymouth",
			wantEligible: true,
			wantVenue:    "Greymouth",
		},
		{
			name:         "unknown region unknown forum",
			region:       "Offshore",
			forum:        "Oamaru",
			wantEligible: false,
			wantVenue:    "Oamaru",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eligible, venue := Resolve(tt.region, tt.forum)
			require.Equal(t, tt.wantEligible, eligible)
			require.Equal(t, tt.wantVenue, venue)

			// Determinism: a second call yields identical outputs.
			eligible2, venue2 := Resolve(tt.region, tt.forum)
			require.Equal(t, eligible, eligible2)
			require.Equal(t, venue, venue2)
		})
	}
}

func TestResolveSession(t *testing.T) {
	tests := []struct {
		name       string
		venue      string
		preference string
		want       string
	}{
		{
			name:       "three-slot venue exact match",
			venue:      "Auckland",
			preference: "evening",
			want:       SessionEvening,
		},
		{
			name:       "three-slot venue free-text match",
			venue:      "Auckland",
			preference: "the afternoon one please",
			want:       SessionAfternoon,
		},
		{
			name:       "two-slot venue cannot match evening, falls back to morning",
			venue:      "Wellington",
			preference: "evening",
			want:       SessionMorning,
		},
		{
			name:       "single-slot venue always morning",
			venue:      "Dunedin",
			preference: "afternoon",
			want:       SessionMorning,
		},
		{
			name:       "unknown venue treated as single slot",
			venue:      "Oamaru",
			preference: "evening",
			want:       SessionMorning,
		},
		{
			name:       "empty preference falls back to earliest",
			venue:      "Christchurch",
			preference: "",
			want:       SessionMorning,
		},
		{
			name:       "nonsense preference falls back to earliest",
			venue:      "Hamilton",
			preference: "whenever suits",
			want:       SessionMorning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ResolveSession(tt.venue, tt.preference))
		})
	}
}

func TestSessionSlotsEarliestFirst(t *testing.T) {
	require.Equal(t, []string{SessionMorning, SessionAfternoon, SessionEvening}, SessionSlots("Auckland"))
	require.Equal(t, []string{SessionMorning}, SessionSlots("Dunedin"))
	require.Equal(t, []string{SessionMorning}, SessionSlots("nowhere"))
}
