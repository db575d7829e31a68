package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"Taskly/models"

	"github.com/gorilla/sessions"
)

// SessionUserKey is the session value holding the serialized principal.
const SessionUserKey = "user_id"

// Principals resolves a serialized principal back to a user.
type Principals interface {
	Deserialize(ctx context.Context, id string) (*models.User, error)
}

type userCtxKey struct{}

// WithUser attaches the principal to ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

// UserFromContext returns the principal set by RequireAuth.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userCtxKey{}).(*models.User)
	return user, ok && user != nil
}

// Redirect sends the client to url, using HX-Redirect for HTMX requests.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// redirectToLogin logs the reason and redirects to the auth page
func redirectToLogin(w http.ResponseWriter, r *http.Request, reason string) {
	slog.Info("Redirecting to /auth", "reason", reason, "path", r.URL.Path)
	Redirect(w, r, "/auth")
}

// RequireAuth only lets requests through whose session names an existing
// user. The user is available downstream through UserFromContext.
func RequireAuth(store sessions.Store, sessionName string, principals Principals) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := store.Get(r, sessionName)
			if err != nil {
				redirectToLogin(w, r, "No session found")
				return
			}

			raw, ok := session.Values[SessionUserKey]
			if !ok {
				redirectToLogin(w, r, "User not authenticated")
				return
			}

			userID, ok := raw.(string)
			if !ok || userID == "" {
				redirectToLogin(w, r, "Invalid user_id in session")
				return
			}

			user, err := principals.Deserialize(r.Context(), userID)
			if err != nil {
				slog.Error("Failed to load session user", "user_id", userID, "error", err)
				Redirect(w, r, "/todo/error")
				return
			}
			if user == nil {
				delete(session.Values, SessionUserKey)
				if err := session.Save(r, w); err != nil {
					slog.Error("Failed to clear stale session", "error", err)
				}
				redirectToLogin(w, r, "User not found in database")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
