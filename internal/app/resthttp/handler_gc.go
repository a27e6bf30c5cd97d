package resthttp

import (
	"net/http"
	"time"

	"github.com/sir_venger/upload_lite/pkg/httperrors"
)

const manualGCTTL = 24 * time.Hour

// gcOnce вручную запускает уборку брошенных временных файлов.
func (s *Server) gcOnce(w http.ResponseWriter, _ *http.Request) {
	ttl := s.GCTTL
	if ttl <= 0 {
		ttl = manualGCTTL
	}
	if err := s.TmpDir.SweepOnce(ttl); err != nil {
		httperrors.Write(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
