package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/go-chi/chi/v5"
)

// loginAccessToken implements the OAuth2 password flow: form fields
// username (the email) and password.
func (h *handlers) loginAccessToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		if tooLarge(err) {
			writeError(w, r, h.log, common.ErrBodyTooLarge)
			return
		}
		writeError(w, r, h.log, common.WithDetail(common.ErrValidation, "invalid form body"))
		return
	}
	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	if email == "" || password == "" {
		writeError(w, r, h.log, common.WithDetail(common.ErrValidation, "username and password are required"))
		return
	}

	token, err := h.login.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *handlers) testToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (h *handlers) refreshToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.login.IssueToken(currentUser(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *handlers) recoverPassword(w http.ResponseWriter, r *http.Request) {
	if err := h.login.RecoverPassword(r.Context(), chi.URLParam(r, "email")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Message{Message: "Password recovery email sent"})
}

func (h *handlers) recoveryHTMLContent(w http.ResponseWriter, r *http.Request) {
	msg, err := h.login.RecoveryEmailContent(r.Context(), currentUser(r), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("subject", msg.Subject)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(msg.HTML))
}

func (h *handlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in models.NewPassword
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.login.ResetPassword(r.Context(), in.Token, in.NewPassword); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Message{Message: "Password updated successfully"})
}
