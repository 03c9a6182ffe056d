package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"calendasync/internal/delivery/http/controllers"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Auth     *controllers.AuthController
	User     *controllers.UserController
	Event    *controllers.EventController
	Calendar *controllers.CalendarController
	Waitlist *controllers.WaitlistController
	Health   *controllers.HealthController
}

// NewRouter initializes the HTTP router with all application routes. requireAuth guards
// every route that reads or writes a user's data.
func NewRouter(c Controllers, requireAuth func(http.HandlerFunc) http.HandlerFunc) *http.ServeMux {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", c.Auth.Login)
	mux.HandleFunc("POST /auth/otp", c.Auth.RequestOTP)
	mux.HandleFunc("POST /auth/otp/verify", c.Auth.VerifyOTP)
	mux.HandleFunc("POST /auth/reset-password", c.Auth.ResetPassword)
	mux.HandleFunc("POST /auth/reset-password/confirm", c.Auth.ConfirmPasswordReset)

	// Users
	mux.HandleFunc("GET /users/me", requireAuth(c.User.GetMe))
	mux.HandleFunc("PATCH /users/me", requireAuth(c.User.UpdateMe))

	// Events
	mux.HandleFunc("GET /events", requireAuth(c.Event.ListEvents))
	mux.HandleFunc("POST /events", requireAuth(c.Event.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", requireAuth(c.Event.GetEvent))
	mux.HandleFunc("PUT /events/{eventID}", requireAuth(c.Event.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", requireAuth(c.Event.DeleteEvent))
	mux.HandleFunc("GET /calendar.ics", requireAuth(c.Calendar.Export))

	mux.HandleFunc("POST /waitlist", c.Waitlist.Join)
	mux.HandleFunc("GET /health", c.Health.Health)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
