package handlers

import (
	"log/slog"
	"net/http"

	"Taskly/middleware"

	"github.com/gorilla/sessions"
)

const (
	flashSuccess = "success"
	flashError   = "error"
)

// session returns the request's session. A cookie that fails verification
// still yields a fresh session, so callers can carry on.
func (h *Handler) session(r *http.Request) *sessions.Session {
	session, err := h.store.Get(r, h.opts.SessionName)
	if err != nil {
		slog.Warn("Discarding unreadable session", "error", err, "path", r.URL.Path)
	}
	if session == nil {
		session = sessions.NewSession(h.store, h.opts.SessionName)
		opts := sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode}
		session.Options = &opts
		session.IsNew = true
	}
	return session
}

// sessionRegenerator is implemented by stores that keep sessions server side.
type sessionRegenerator interface {
	Regenerate(r *http.Request, session *sessions.Session) error
}

// renewSession makes the next Save issue a new session id, so an id handed
// out before login never carries the principal.
func (h *Handler) renewSession(r *http.Request, session *sessions.Session) error {
	if rg, ok := h.store.(sessionRegenerator); ok {
		return rg.Regenerate(r, session)
	}
	session.ID = ""
	return nil
}

func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err, "path", r.URL.Path)
	}
}

// flashRedirect stores a one-time message and redirects to url.
func (h *Handler) flashRedirect(w http.ResponseWriter, r *http.Request, kind, message, url string) {
	session := h.session(r)
	session.AddFlash(message, kind)
	h.saveSession(w, r, session)
	middleware.Redirect(w, r, url)
}

// takeFlashes consumes pending messages. It must run before the body is written.
func (h *Handler) takeFlashes(w http.ResponseWriter, r *http.Request) (success, errs []string) {
	session := h.session(r)
	success = flashStrings(session.Flashes(flashSuccess))
	errs = flashStrings(session.Flashes(flashError))
	if len(success) > 0 || len(errs) > 0 {
		h.saveSession(w, r, session)
	}
	return success, errs
}

func flashStrings(raw []interface{}) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
