package domain

import (
	"context"
	"time"
)

// Stage is a member's registration lifecycle stage.
type Stage string

const (
	StageInvited             Stage = "INVITED"
	StagePreferenceSubmitted Stage = "PREFERENCE_SUBMITTED"
	StageAttendanceConfirmed Stage = "ATTENDANCE_CONFIRMED"
	StageAttendanceDeclined  Stage = "ATTENDANCE_DECLINED"
	StageVenueCancelled      Stage = "VENUE_CANCELLED"
	StageTicketOnly          Stage = "TICKET_ONLY"
)

// Decided reports whether the member has moved past the invitation funnel.
// Every stage except INVITED counts as decided.
func (s Stage) Decided() bool {
	return s != StageInvited
}

// Attendance is the member's tri-state attendance decision.
type Attendance string

const (
	AttendanceUndecided    Attendance = "undecided"
	AttendanceAttending    Attendance = "attending"
	AttendanceNotAttending Attendance = "not_attending"
)

// SpecialVoteStatus is the derived status of a special-vote request.
// APPROVED always implies the member requested a special vote.
type SpecialVoteStatus string

const (
	SpecialVoteNone     SpecialVoteStatus = ""
	SpecialVoteApproved SpecialVoteStatus = "APPROVED"
)

// TicketStatus tracks the lifecycle of an issued ticket.
type TicketStatus string

const (
	TicketNone   TicketStatus = ""
	TicketIssued TicketStatus = "issued"
	TicketUsed   TicketStatus = "used"
)

// Member is one person in one event context.
// swagger:model Member
type Member struct {
	ID               string `json:"id"`
	EventID          string `json:"event_id"`
	MembershipNumber string `json:"membership_number"`
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	Mobile           string `json:"mobile,omitempty"`
	Region           string `json:"region"`
	Forum            string `json:"forum"`

	// AccessToken is the general capability token handed to the member.
	// TicketToken is a second capability scoped to the ticket/check-in
	// flow; once issued it never changes for the record's lifetime.
	AccessToken string  `json:"-"`
	TicketToken *string `json:"-"`

	Stage               Stage      `json:"stage"`
	Attendance          Attendance `json:"attendance"`
	AttendanceDecidedAt *time.Time `json:"attendance_decided_at,omitempty"`

	PreferredVenue  *string `json:"preferred_venue,omitempty"`
	PreferredTime   *string `json:"preferred_time,omitempty"`
	PreferredFormat *string `json:"preferred_format,omitempty"`

	SpecialVoteEligible  bool              `json:"special_vote_eligible"`
	SpecialVoteRequested bool              `json:"special_vote_requested"`
	SpecialVoteStatus    SpecialVoteStatus `json:"special_vote_status,omitempty"`

	// Assignment fields are set once by the automated path; nil means
	// unassigned, which is a valid queryable state.
	AssignedVenue   *string    `json:"assigned_venue,omitempty"`
	AssignedSession *string    `json:"assigned_session,omitempty"`
	AssignedAt      *time.Time `json:"assigned_at,omitempty"`

	CheckedIn       bool       `json:"checked_in"`
	CheckedInAt     *time.Time `json:"checked_in_at,omitempty"`
	CheckInMethod   *string    `json:"check_in_method,omitempty"`
	CheckInVenue    *string    `json:"check_in_venue,omitempty"`
	CheckInOperator *string    `json:"check_in_operator,omitempty"`

	TicketStatus   TicketStatus `json:"ticket_status,omitempty"`
	TicketIssuedAt *time.Time   `json:"ticket_issued_at,omitempty"`

	DataSource   string     `json:"data_source,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`

	// RegistrationData is a typed additive key-value payload for
	// free-form registration facts (decline reason, employer, check-in
	// provenance). Writers merge keys in; existing keys for other
	// concerns are never dropped.
	RegistrationData map[string]string `json:"registration_data,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMember returns an invited member for an event. ID is typically set by
// the repository on create.
func NewMember(eventID, membershipNumber, name, region, forum, accessToken string, now time.Time) *Member {
	return &Member{
		EventID:          eventID,
		MembershipNumber: membershipNumber,
		Name:             name,
		Region:           region,
		Forum:            forum,
		AccessToken:      accessToken,
		Stage:            StageInvited,
		Attendance:       AttendanceUndecided,
		RegistrationData: map[string]string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Preferences is the member's submitted preference payload.
type Preferences struct {
	Venue  string            `json:"venue"`
	Time   string            `json:"time"`
	Format string            `json:"format"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// CheckInKey identifies a member for check-in by exactly one of three
// lookup keys.
type CheckInKey struct {
	MembershipNumber string `json:"membership_number,omitempty"`
	AccessToken      string `json:"access_token,omitempty"`
	TicketToken      string `json:"ticket_token,omitempty"`
}

// CheckInResult reports the outcome of a check-in scan. A duplicate scan
// is not an error: AlreadyCheckedIn is true and the fields carry the
// winning scan's data so venue staff can see where and when it happened.
type CheckInResult struct {
	MemberID         string    `json:"member_id"`
	MembershipNumber string    `json:"membership_number"`
	Name             string    `json:"name"`
	AlreadyCheckedIn bool      `json:"already_checked_in"`
	CheckedInAt      time.Time `json:"checked_in_at"`
	Venue            string    `json:"venue"`
	Operator         string    `json:"operator"`
	Method           string    `json:"method"`
}

// MemberRepository defines storage operations for members. Conditional
// writes (UpdateFromStage, CheckIn) are the serialization points for
// concurrent mutation of a single member; different members have no
// ordering relationship.
type MemberRepository interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, eventID, memberID string) (*Member, error)
	GetByMembershipNumber(ctx context.Context, eventID, number string) (*Member, error)
	GetByAccessToken(ctx context.Context, eventID, token string) (*Member, error)
	GetByTicketToken(ctx context.Context, eventID, token string) (*Member, error)

	// UpdateFromStage writes the member's lifecycle and derived fields
	// only if the stored stage still equals expected. Returns
	// ErrStaleStage when another writer got there first.
	UpdateFromStage(ctx context.Context, m *Member, expected Stage) error

	// CheckIn applies the check-in mutation under a compare-and-swap on
	// the checked_in flag and additively merges provenance into the
	// registration data payload. Returns won=false when the member was
	// already checked in; the stored record then carries the winner's data.
	CheckIn(ctx context.Context, memberID string, at time.Time, method, venue, operator string, provenance map[string]string) (won bool, err error)

	// UpdateProfile writes contact/profile fields and sync provenance
	// only. Stage, attendance, check-in, and ticket fields are never
	// touched by this path.
	UpdateProfile(ctx context.Context, m *Member) error
}

// RegistrationService is the public surface of the registration state
// machine.
type RegistrationService interface {
	SubmitPreferences(ctx context.Context, eventID, memberID string, prefs *Preferences) (*Member, error)
	ConfirmAttendance(ctx context.Context, eventID, memberID string, financial map[string]string) (*Member, error)
	DeclineAttendance(ctx context.Context, eventID, memberID, reason string, specialVoteRequest bool) (*Member, error)
	MarkVenueCancelled(ctx context.Context, eventID, memberID string, specialVoteRequest bool) (*Member, error)
	IssueTicketOnly(ctx context.Context, eventID, memberID string) (*Member, error)
	GetByAccessToken(ctx context.Context, eventID, accessToken string) (*Member, error)
}

// CheckInService records a physical check-in at most once per member.
type CheckInService interface {
	CheckIn(ctx context.Context, eventID string, key CheckInKey, venue, operator string) (*CheckInResult, error)
}
