// Package handlers implements the form-driven web surface.
//
// Response contract: successful mutations redirect (302), validation
// failures re-render the submitted form with field errors (200), unknown
// path ids are 404. A missing acting user or missing path parameter on a
// mutating route is a routing-contract violation and panics; the router is
// responsible for never letting such a request through.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashen-heron/trackd/internal/models"
	"github.com/ashen-heron/trackd/internal/storage"
	"github.com/ashen-heron/trackd/internal/web/session"
	"github.com/ashen-heron/trackd/internal/web/views"
)

// Handler carries the dependencies shared by all web handlers.
type Handler struct {
	storage  storage.Storage
	sessions *session.Store
	views    *views.Renderer
}

// NewHandler creates a web handler.
func NewHandler(store storage.Storage, sessions *session.Store) *Handler {
	if sessions == nil {
		sessions = session.NewStore(24 * time.Hour)
	}
	return &Handler{
		storage:  store,
		sessions: sessions,
		views:    views.New(),
	}
}

// Sessions returns the session store for router wiring.
func (h *Handler) Sessions() *session.Store {
	return h.sessions
}

type contextKey string

// UserContextKey holds the acting *models.User resolved from the session.
const UserContextKey contextKey = "user"

// GetUser returns the acting user, or nil when the request is anonymous.
func GetUser(r *http.Request) *models.User {
	if u, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return u
	}
	return nil
}

// MustUser returns the acting user and panics when absent. Mutating
// handlers are only ever mounted behind RequireUser, so a nil user here is
// caller misuse, not a user-facing condition.
func MustUser(r *http.Request) *models.User {
	user := GetUser(r)
	if user == nil {
		panic("handlers: no authenticated user in request context")
	}
	return user
}

// MustParam returns the named path parameter and panics when absent, for
// the same reason as MustUser: the route patterns guarantee it.
func MustParam(r *http.Request, name string) string {
	value := chi.URLParam(r, name)
	if value == "" {
		panic("handlers: missing path parameter " + name)
	}
	return value
}
