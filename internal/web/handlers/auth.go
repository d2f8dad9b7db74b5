package handlers

import (
	"net/http"

	"github.com/gorilla/csrf"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashen-heron/trackd/internal/web/views"
)

// ShowLogin renders the login page, or bounces straight to the project
// list when already logged in.
func (h *Handler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if GetUser(r) != nil {
		http.Redirect(w, r, "/projects/", http.StatusFound)
		return
	}
	h.views.Render(w, "login.html", views.LoginData{CSRFField: csrf.TemplateField(r)})
}

// HandleLogin authenticates the posted credentials and opens a session.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, "Invalid form data")
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		w.WriteHeader(http.StatusBadRequest)
		h.renderLoginError(w, r, "Username and password are required")
		return
	}

	ctx := r.Context()
	user, err := h.storage.Users().GetByUsername(ctx, username)
	if err != nil || user == nil {
		w.WriteHeader(http.StatusUnauthorized)
		h.renderLoginError(w, r, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		h.renderLoginError(w, r, "Invalid credentials")
		return
	}

	// Invalidate any existing session to prevent session fixation
	if cookie, err := r.Cookie("session_id"); err == nil {
		h.sessions.Delete(cookie.Value)
	}

	sess, err := h.sessions.Create(user.ID, user.Username)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.renderLoginError(w, r, "Failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400,
	})

	http.Redirect(w, r, "/projects/", http.StatusFound)
}

// HandleLogout closes the session and clears the cookie.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("session_id"); err == nil {
		h.sessions.Delete(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request, message string) {
	h.views.Render(w, "login.html", views.LoginData{
		CSRFField: csrf.TemplateField(r),
		Error:     message,
	})
}
