// Package web wires the session-backed HTML surface: login, project and
// ticket forms, and the authenticated navigation around them.
package web

import (
	"time"

	"github.com/ashen-heron/trackd/internal/storage"
	"github.com/ashen-heron/trackd/internal/web/handlers"
	"github.com/ashen-heron/trackd/internal/web/session"
)

type Server struct {
	storage          storage.Storage
	handler          *handlers.Handler
	sessions         *session.Store
	csrfKey          []byte
	useSecureCookies bool
	trustedOrigins   []string
}

func NewServer(storage storage.Storage, csrfKey string) *Server {
	sessions := session.NewStore(24 * time.Hour)
	return NewServerWithSessions(storage, csrfKey, sessions, false, nil)
}

// NewServerWithSessions creates a server with a provided session store so it
// can be shared with other surfaces. A nil store gets a fresh one.
// trustedOrigins lists additional hosts whose cross-origin form posts the
// CSRF layer accepts, e.g. a reverse proxy serving the UI under another name.
func NewServerWithSessions(storage storage.Storage, csrfKey string, sessions *session.Store, useSecureCookies bool, trustedOrigins []string) *Server {
	if sessions == nil {
		sessions = session.NewStore(24 * time.Hour)
	}
	return &Server{
		storage:          storage,
		handler:          handlers.NewHandler(storage, sessions),
		sessions:         sessions,
		csrfKey:          []byte(csrfKey),
		useSecureCookies: useSecureCookies,
		trustedOrigins:   trustedOrigins,
	}
}

func (s *Server) Sessions() *session.Store {
	return s.sessions
}

func (s *Server) Handler() *handlers.Handler {
	return s.handler
}

func (s *Server) CSRFKey() []byte {
	return s.csrfKey
}
