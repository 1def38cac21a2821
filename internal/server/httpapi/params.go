package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// pageParams reads skip and limit from the query, defaulting to 0 and
// services.DefaultLimit. A limit above services.MaxLimit is rejected.
func pageParams(r *http.Request) (services.Page, error) {
	page := services.Page{Limit: services.DefaultLimit}

	q := r.URL.Query()
	for name, dst := range map[string]*int{"skip": &page.Skip, "limit": &page.Limit} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return page, common.WithDetail(common.ErrValidation, name+" must be an integer")
		}
		*dst = v
	}
	if page.Limit > services.MaxLimit {
		return page, common.WithDetail(common.ErrValidation, fmt.Sprintf("limit must be at most %d", services.MaxLimit))
	}
	return page, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, common.WithDetail(common.ErrValidation, "id must be a valid UUID")
	}
	return id, nil
}
