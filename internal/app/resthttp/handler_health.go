package resthttp

import (
	"net/http"

	"github.com/sir_venger/upload_lite/pkg/httperrors"
)

// healthStats — payload ответа /health.
type healthStats struct {
	OK       bool   `json:"ok"`
	TmpDir   string `json:"tmp_dir"`
	TmpBytes int64  `json:"tmp_bytes"`
	TmpFiles int    `json:"tmp_files"`
}

// health отдаёт объём временного каталога: растущие цифры при нулевой нагрузке
// означают утечку временных файлов.
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	st, err := s.TmpDir.Stats()
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, healthStats{
		OK:       true,
		TmpDir:   s.TmpDir.Path(),
		TmpBytes: st.Bytes,
		TmpFiles: st.Files,
	})
}
