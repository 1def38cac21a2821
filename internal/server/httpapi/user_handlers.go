package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophcrud/internal/server/models"
)

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	out, err := h.users.List(r.Context(), currentUser(r), page)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) createUser(w http.ResponseWriter, r *http.Request) {
	in := models.NewUserCreate()
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	user, err := h.users.Create(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handlers) registerUser(w http.ResponseWriter, r *http.Request) {
	var in models.UserRegister
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	user, err := h.users.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handlers) readMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (h *handlers) updateMe(w http.ResponseWriter, r *http.Request) {
	var in models.UserUpdateMe
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	user, err := h.users.UpdateMe(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handlers) updatePasswordMe(w http.ResponseWriter, r *http.Request) {
	var in models.UpdatePassword
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), currentUser(r), in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Message{Message: "Password updated successfully"})
}

func (h *handlers) deleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.users.DeleteMe(r.Context(), currentUser(r)); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Message{Message: "User deleted successfully"})
}

func (h *handlers) readUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	user, err := h.users.Get(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handlers) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var in models.UserUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	user, err := h.users.Update(r.Context(), currentUser(r), id, in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.users.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Message{Message: "User deleted successfully"})
}

func (h *handlers) listMyItems(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	out, err := h.items.ListOwn(r.Context(), currentUser(r), page)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
