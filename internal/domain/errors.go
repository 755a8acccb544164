package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	// ErrNotFound is the generic lookup miss for events and other
	// secondary entities.
	ErrNotFound = errors.New("not found")

	// ErrMemberNotFound is returned when a member cannot be resolved by
	// membership number, access token, or ticket token within the target
	// event. Cross-event token reuse resolves to this error as well.
	ErrMemberNotFound = errors.New("member not found")

	// ErrInvalidStateTransition is returned when a registration operation
	// is invoked from a stage it is not legal to leave through that
	// operation. The member record is left untouched.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrNotAttending is returned when a check-in is attempted for a
	// member whose attendance decision is not "attending".
	ErrNotAttending = errors.New("member is not attending")

	// ErrStaleStage is returned by the member repository when a
	// conditional write finds the stored stage no longer matches the
	// stage the caller read. The caller lost the race and must fail.
	ErrStaleStage = errors.New("member stage changed concurrently")

	ErrJobNotFound = errors.New("sync job not found")

	// ErrJobAlreadyProcessed is returned when a worker tries to run a
	// job that has already left the PENDING state. Re-delivery of a
	// queue message is expected, so callers treat this as a no-op.
	ErrJobAlreadyProcessed = errors.New("sync job already processed")

	ErrInvalidInput = errors.New("invalid input")
)
