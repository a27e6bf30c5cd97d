package resthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sir_venger/upload_lite/pkg/httperrors"
)

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.Catalog.Get(r.Context(), id)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}
