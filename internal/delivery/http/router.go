package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"bmmregistration/internal/delivery/http/controllers"
	"bmmregistration/internal/delivery/http/middleware"
	"bmmregistration/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Registration routes are member-facing and unauthenticated (members are
// identified by capability tokens); check-in, sync, and audit routes
// require an operator bearer token.
func NewRouter(
	events *controllers.EventController,
	registration *controllers.RegistrationController,
	checkin *controllers.CheckInController,
	syncJobs *controllers.SyncJobController,
	audit *controllers.AuditController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(verifier, logger)

	// Events
	mux.HandleFunc("POST /events", requireAuth(events.Create))
	mux.HandleFunc("GET /events/{code}", events.GetByCode)

	// Registration lifecycle
	mux.HandleFunc("POST /events/{eventID}/members/{memberID}/preferences", registration.SubmitPreferences)
	mux.HandleFunc("POST /events/{eventID}/members/{memberID}/confirm", registration.ConfirmAttendance)
	mux.HandleFunc("POST /events/{eventID}/members/{memberID}/decline", registration.DeclineAttendance)
	mux.HandleFunc("POST /events/{eventID}/members/{memberID}/venue-cancelled", registration.MarkVenueCancelled)
	mux.HandleFunc("POST /events/{eventID}/members/{memberID}/ticket-only", registration.IssueTicketOnly)
	mux.HandleFunc("GET /events/{eventID}/members/me", registration.GetMe)

	// Check-in (operator only)
	mux.HandleFunc("POST /events/{eventID}/checkin", requireAuth(checkin.CheckIn))

	// Sync jobs (operator only)
	mux.HandleFunc("POST /events/{eventID}/sync-jobs", requireAuth(syncJobs.Trigger))
	mux.HandleFunc("GET /sync-jobs/{jobID}", requireAuth(syncJobs.GetByID))

	// Audit (operator only)
	mux.HandleFunc("GET /events/{eventID}/members/{memberID}/audit", requireAuth(audit.ListByMember))

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
