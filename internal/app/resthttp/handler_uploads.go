package resthttp

import (
	"net/http"
	"strings"

	"github.com/spf13/afero"
)

// uploads раздаёт сохранённые фото. Листинг каталога не отдаётся.
func (s *Server) uploads() http.HandlerFunc {
	files := http.StripPrefix("/uploads/", http.FileServer(afero.NewHttpFs(s.UploadFs).Dir(s.UploadDir)))

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}
}
