package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"Taskly/logger"
	"Taskly/middleware"
	"Taskly/services"
)

func (h *Handler) AuthPage(w http.ResponseWriter, r *http.Request) {
	success, errs := h.takeFlashes(w, r)
	h.render(w, "auth", viewData{
		Success:          success,
		Errors:           errs,
		AllowAdminSignup: h.opts.AllowAdminSignup,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Login handler called",
		"path", r.URL.Path,
		"htmx_request", r.Header.Get("HX-Request"))

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		h.flashRedirect(w, r, flashError, "Username and password are required.", "/auth")
		return
	}

	user, err := h.auth.Authenticate(r.Context(), username, password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			slog.Error("Login failed", "username", username, "error", err)
		}
		h.flashRedirect(w, r, flashError, "Incorrect username or password.", "/auth")
		return
	}

	session := h.session(r)
	if err := h.renewSession(r, session); err != nil {
		slog.Error("Failed to renew session", "username", username, "error", err)
		h.flashRedirect(w, r, flashError, "An error occurred while logging in. Please try again.", "/auth")
		return
	}
	session.Values[middleware.SessionUserKey] = h.auth.Serialize(user)
	session.AddFlash("You have successfully logged in.", flashSuccess)
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "username", username, "error", err)
		h.flashRedirect(w, r, flashError, "An error occurred while logging in. Please try again.", "/auth")
		return
	}

	slog.Info("User logged in", "username", username)
	middleware.Redirect(w, r, "/todo")
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		h.flashRedirect(w, r, flashError, "Username and password are required.", "/auth")
		return
	}

	isAdmin := h.opts.AllowAdminSignup && r.FormValue("is_admin_raw") == "true"

	res := h.auth.Register(r.Context(), username, password, isAdmin)
	if !res.OK() {
		res.LogError(logger.Default(), "Registration failed: ")
		h.flashRedirect(w, r, flashError, res.Message, "/auth")
		return
	}

	h.flashRedirect(w, r, flashSuccess, res.Message, "/auth")
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	session := h.session(r)
	delete(session.Values, middleware.SessionUserKey)
	session.AddFlash("You have been logged out successfully.", flashSuccess)
	h.saveSession(w, r, session)

	slog.Info("User logged out", "username", user.ID)
	middleware.Redirect(w, r, "/auth")
}
