package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/google/uuid"
)

func (h *handlers) listItems(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	out, err := h.items.List(r.Context(), currentUser(r), page)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) createItem(w http.ResponseWriter, r *http.Request) {
	var in models.ItemCreate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	item, err := h.items.Create(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type (
	itemGetter  func(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Item, error)
	itemUpdater func(ctx context.Context, actor *models.User, id uuid.UUID, in models.ItemUpdate) (*models.Item, error)
	itemDeleter func(ctx context.Context, actor *models.User, id uuid.UUID) error
)

// The handlers below serve both /items and /users/me/items; only the
// service call differs.
func (h *handlers) readItem(get itemGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		item, err := get(r.Context(), currentUser(r), id)
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (h *handlers) updateItem(update itemUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		var in models.ItemUpdate
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, h.log, err)
			return
		}
		item, err := update(r.Context(), currentUser(r), id, in)
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (h *handlers) deleteItem(del itemDeleter, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		if err := del(r.Context(), currentUser(r), id); err != nil {
			writeError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, models.Message{Message: message})
	}
}
