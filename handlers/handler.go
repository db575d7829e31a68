package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"Taskly/middleware"
	"Taskly/models"
	"Taskly/result"
	"Taskly/services"
	"Taskly/templates"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
)

// DefaultSessionName is the cookie carrying the session id.
const DefaultSessionName = "taskly-session"

type TodoService interface {
	ListForUser(ctx context.Context, user *models.User) result.Result[services.TodoLists]
	AddItem(ctx context.Context, name string, dueDate *time.Time, owner *models.User) result.Result[models.TodoItem]
	GetItem(ctx context.Context, user *models.User, id string) result.Result[models.TodoItem]
	ToggleItem(ctx context.Context, user *models.User, id string) result.Result[struct{}]
	RenameItem(ctx context.Context, user *models.User, id, name string) result.Result[struct{}]
	DeleteItem(ctx context.Context, user *models.User, id string) result.Result[struct{}]
}

type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	Register(ctx context.Context, username, password string, isAdmin bool) result.Result[*models.User]
	Serialize(user *models.User) string
	Deserialize(ctx context.Context, id string) (*models.User, error)
}

// Pinger reports database reachability for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	SessionName      string
	AllowAdminSignup bool
	RequestTimeout   time.Duration
	DB               Pinger
}

type Handler struct {
	todos TodoService
	auth  AuthService
	store sessions.Store
	opts  Options
	pages map[string]*template.Template
}

func New(todos TodoService, auth AuthService, store sessions.Store, opts Options) (*Handler, error) {
	if opts.SessionName == "" {
		opts.SessionName = DefaultSessionName
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	pages, err := parsePages("auth", "home", "modify", "error")
	if err != nil {
		return nil, err
	}

	return &Handler{
		todos: todos,
		auth:  auth,
		store: store,
		opts:  opts,
		pages: pages,
	}, nil
}

// Routes builds the application router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Recoverer)
	r.Use(chimw.Timeout(h.opts.RequestTimeout))

	requireAuth := middleware.RequireAuth(h.store, h.opts.SessionName, h.auth)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/todo", http.StatusSeeOther)
	})
	r.Get("/healthz", h.Health)

	r.Get("/auth", h.AuthPage)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/register", h.Register)
	r.With(requireAuth).Post("/auth/logout", h.Logout)

	r.Get("/todo/error", h.ErrorPage)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/todo", h.Home)
		r.Post("/todo/items/register", h.RegisterItem)
		r.Post("/todo/items/complete/{itemId}", h.CompleteItem)
		r.Post("/todo/items/delete/{itemId}", h.DeleteItem)
		r.Get("/todo/items/modify/{itemId}", h.ModifyPage)
		r.Post("/todo/items/modify/{itemId}", h.ModifyItem)
	})

	return r
}

type viewData struct {
	User             *models.User
	Success          []string
	Errors           []string
	Items            []models.TodoItem
	ItemsDone        []models.TodoItem
	Item             *models.TodoItem
	ShowOwner        bool
	AllowAdminSignup bool
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatDue": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			if t.Hour() == 0 && t.Minute() == 0 {
				return t.Format("Jan 2, 2006")
			}
			return t.Format("Jan 2, 2006 15:04")
		},
	}
}

func parsePages(names ...string) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		tmpl, err := template.New(name).Funcs(funcMap()).ParseFS(templates.FS,
			"layouts/base.html",
			"pages/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// render executes into a buffer so a failing template never leaves a
// half-written page behind.
func (h *Handler) render(w http.ResponseWriter, page string, data viewData) {
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "base", data); err != nil {
		slog.Error("Error rendering template", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func currentUser(r *http.Request) *models.User {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		// routes using this sit behind RequireAuth
		panic("handlers: no authenticated user in request context")
	}
	return user
}
