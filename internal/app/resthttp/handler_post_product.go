package resthttp

import (
	"net/http"

	"github.com/sir_venger/upload_lite/internal/tmpstore"
	"github.com/sir_venger/upload_lite/pkg/httperrors"
)

// postProduct разбирает форму товара и сохраняет карточку. Временные файлы,
// которые каталог не забрал, удаляет tmpstore.Middleware после ответа.
func (s *Server) postProduct(w http.ResponseWriter, r *http.Request) {
	scope, ok := tmpstore.ScopeFrom(r.Context())
	if !ok {
		http.Error(w, "upload scope is not configured", http.StatusInternalServerError)
		return
	}

	fields, err := s.Parser.Parse(w, r, scope)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	p, err := s.Catalog.Create(r.Context(), fields, scope)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	w.Header().Set("Location", "/products/"+p.ID)
	writeJSON(w, http.StatusCreated, p)
}
