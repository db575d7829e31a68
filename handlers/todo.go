package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"Taskly/logger"
	"Taskly/middleware"

	"github.com/go-chi/chi/v5"
)

var errInvalidDueDate = errors.New("invalid due date")

// dueDateLayouts are accepted in order; the first is what datetime-local inputs send.
var dueDateLayouts = []string{"2006-01-02T15:04", "2006-01-02"}

func parseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, errInvalidDueDate
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	res := h.todos.ListForUser(r.Context(), user)
	if !res.OK() {
		res.LogError(logger.Default(), "Error fetching todo items: ")
		middleware.Redirect(w, r, "/todo/error")
		return
	}

	success, errs := h.takeFlashes(w, r)
	h.render(w, "home", viewData{
		User:      user,
		Success:   success,
		Errors:    errs,
		Items:     res.Data().NotDone,
		ItemsDone: res.Data().Done,
		ShowOwner: user.IsAdmin,
	})
}

func (h *Handler) ErrorPage(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	h.render(w, "error", viewData{User: user})
}

func (h *Handler) RegisterItem(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		h.flashRedirect(w, r, flashError, "Item name is required", "/")
		return
	}

	dueDate, err := parseDueDate(r.FormValue("dueDate"))
	if err != nil {
		slog.Warn("Rejected item with unparseable due date", "due_date", r.FormValue("dueDate"), "user", user.ID)
		h.flashRedirect(w, r, flashError, "Invalid due date", "/")
		return
	}

	res := h.todos.AddItem(r.Context(), name, dueDate, user)
	if !res.OK() {
		res.LogError(logger.Default(), "Error adding todo item: ")
		h.flashRedirect(w, r, flashError, res.Message, "/")
		return
	}

	h.flashRedirect(w, r, flashSuccess, res.Message, "/")
}

func (h *Handler) CompleteItem(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	itemID := chi.URLParam(r, "itemId")
	if itemID == "" {
		h.flashRedirect(w, r, flashError, "Item ID is required", "/")
		return
	}

	res := h.todos.ToggleItem(r.Context(), user, itemID)
	if !res.OK() {
		res.LogError(logger.Default(), "Error changing item status: ")
		h.flashRedirect(w, r, flashError, "Failed to change item status", "/")
		return
	}

	h.flashRedirect(w, r, flashSuccess, res.Message, "/")
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	itemID := chi.URLParam(r, "itemId")
	if itemID == "" {
		h.flashRedirect(w, r, flashError, "Item ID is required", "/")
		return
	}

	res := h.todos.DeleteItem(r.Context(), user, itemID)
	if !res.OK() {
		res.LogError(logger.Default(), "Error removing item: ")
		h.flashRedirect(w, r, flashError, "Failed to remove item", "/")
		return
	}

	h.flashRedirect(w, r, flashSuccess, res.Message, "/")
}

func (h *Handler) ModifyPage(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	itemID := chi.URLParam(r, "itemId")
	if itemID == "" {
		h.flashRedirect(w, r, flashError, "Item ID is required", "/")
		return
	}

	res := h.todos.GetItem(r.Context(), user, itemID)
	if !res.OK() {
		res.LogError(logger.Default(), "Error fetching item for modification: ")
		h.flashRedirect(w, r, flashError, res.Message, "/")
		return
	}

	item := res.Data()
	success, errs := h.takeFlashes(w, r)
	h.render(w, "modify", viewData{
		User:    user,
		Success: success,
		Errors:  errs,
		Item:    &item,
	})
}

func (h *Handler) ModifyItem(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	itemID := chi.URLParam(r, "itemId")
	name := strings.TrimSpace(r.FormValue("name"))
	if itemID == "" || name == "" {
		h.flashRedirect(w, r, flashError, "Item ID and name are required", "/")
		return
	}

	res := h.todos.RenameItem(r.Context(), user, itemID, name)
	if !res.OK() {
		res.LogError(logger.Default(), "Error modifying item: ")
		h.flashRedirect(w, r, flashError, res.Message, "/")
		return
	}

	h.flashRedirect(w, r, flashSuccess, res.Message, "/")
}
