package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/logging"
)

type errorBody struct {
	Detail string `json:"detail"`
}

// statusRule maps an error kind to an HTTP status and the detail shown when
// the error carries no message of its own.
type statusRule struct {
	kind   error
	status int
	detail string
}

// Order matters: the first matching kind wins.
var statusTable = []statusRule{
	{common.ErrInvalidCredentials, http.StatusBadRequest, "Incorrect email or password"},
	{common.ErrUnauthenticated, http.StatusUnauthorized, "Could not validate credentials"},
	{common.ErrPrincipalNotFound, http.StatusUnauthorized, "Could not validate credentials"},
	{common.ErrInactiveAccount, http.StatusBadRequest, "Inactive user"},
	{common.ErrInsufficientPrivilege, http.StatusForbidden, "The user doesn't have enough privileges"},
	{common.ErrSuperuserSelfDelete, http.StatusForbidden, "Super users are not allowed to delete themselves"},
	{common.ErrRegistrationClosed, http.StatusForbidden, "Open user registration is forbidden on this server"},
	{common.ErrConflict, http.StatusConflict, "Resource already exists"},
	{common.ErrInvalidToken, http.StatusBadRequest, "Invalid token"},
	{common.ErrIncorrectPassword, http.StatusBadRequest, "Incorrect password"},
	{common.ErrSamePassword, http.StatusBadRequest, "New password cannot be the same as the current one"},
	{common.ErrBodyTooLarge, http.StatusRequestEntityTooLarge, "Request body too large"},
	{common.ErrValidation, http.StatusUnprocessableEntity, "Validation error"},
	{common.ErrorNotFound, http.StatusNotFound, "Not found"},
}

// classify returns the status and client-facing detail for err.
func classify(err error) (int, string) {
	for _, rule := range statusTable {
		if !errors.Is(err, rule.kind) {
			continue
		}
		var de *common.DetailedError
		if errors.As(err, &de) && errors.Is(de.Kind, rule.kind) {
			return rule.status, de.Detail
		}
		return rule.status, rule.detail
	}
	return http.StatusInternalServerError, "Internal server error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", common.BearerScheme)
	}
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeError answers with the status mapped from err. Unmapped errors are
// logged since the client only sees a generic message.
func writeError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	status, detail := classify(err)
	if status == http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeDetail(w, status, detail)
}

// maxBodyBytes caps JSON and form request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads at most maxBodyBytes of the request body into dst.
// Syntax and type errors are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return common.WithDetail(common.ErrValidation, "request body is required")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if tooLarge(err) {
			return common.ErrBodyTooLarge
		}
		return common.WithDetail(common.ErrValidation, "invalid request body: "+err.Error())
	}
	return nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
