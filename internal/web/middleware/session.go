// Package middleware provides session middleware for the web surface.
package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/ashen-heron/trackd/internal/storage"
	"github.com/ashen-heron/trackd/internal/web/handlers"
	"github.com/ashen-heron/trackd/internal/web/session"
)

// LoadUser resolves the session cookie into a *models.User in the request
// context. Requests without a valid session pass through anonymous; pages
// like the project list render for both.
func LoadUser(store *session.Store, users storage.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("session_id")
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			sess, ok := store.Get(cookie.Value)
			if !ok {
				// Clear invalid cookie
				http.SetCookie(w, &http.Cookie{
					Name:   "session_id",
					Value:  "",
					Path:   "/",
					MaxAge: -1,
				})
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByID(r.Context(), sess.UserID)
			if err != nil {
				log.Printf("load session user %s: %v", sess.UserID, err)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				// User deleted since login; session is stale.
				store.Delete(sess.ID)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser redirects anonymous requests to the login page. Handlers
// mounted behind it may call handlers.MustUser.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handlers.GetUser(r) == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
