package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	"github.com/ashen-heron/trackd/internal/web/middleware"
)

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	// CSRF protection. The origin check compares against an https scheme
	// unless the request is marked plaintext, so deployments without TLS
	// must set the marker or every same-origin POST is rejected.
	csrfMiddleware := csrf.Protect(
		s.csrfKey,
		csrf.Secure(s.useSecureCookies),
		csrf.Path("/"),
		csrf.TrustedOrigins(s.trustedOrigins),
	)
	if !s.useSecureCookies {
		r.Use(markPlaintextHTTP)
	}
	r.Use(csrfMiddleware)
	r.Use(middleware.LoadUser(s.sessions, s.storage.Users()))

	// Public routes. List and detail pages render for anonymous visitors.
	r.Get("/login", s.handler.ShowLogin)
	r.Post("/login", s.handler.HandleLogin)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/projects/", http.StatusFound)
	})
	r.Get("/projects/", s.handler.ListProjects)
	r.Get("/projects/{projectID}/", s.handler.ShowProject)
	r.Get("/my-tickets/", s.handler.MyTickets)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Post("/logout", s.handler.HandleLogout)

		r.Get("/projects/new", s.handler.CreateProject)
		r.Post("/projects/new", s.handler.CreateProject)
		r.Get("/projects/{projectID}/edit", s.handler.UpdateProject)
		r.Post("/projects/{projectID}/edit", s.handler.UpdateProject)

		r.Get("/projects/{projectID}/tickets/new", s.handler.CreateTicket)
		r.Post("/projects/{projectID}/tickets/new", s.handler.CreateTicket)
		r.Get("/projects/{projectID}/tickets/{ticketID}/edit", s.handler.UpdateTicket)
		r.Post("/projects/{projectID}/tickets/{ticketID}/edit", s.handler.UpdateTicket)
		r.Post("/projects/{projectID}/tickets/{ticketID}/delete", s.handler.DeleteTicket)
	})

	return r
}

// markPlaintextHTTP tells the CSRF layer the request arrived over cleartext
// HTTP so its origin comparison uses the http scheme.
func markPlaintextHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
