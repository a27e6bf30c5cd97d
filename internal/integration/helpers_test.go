package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sir_venger/upload_lite/internal/app/resthttp"
	"github.com/sir_venger/upload_lite/internal/config"
	"github.com/sir_venger/upload_lite/internal/tmpstore"
	"github.com/spf13/afero"
)

type stack struct {
	cfg  *config.Config
	tmp  *tmpstore.Dir
	base string
	rest *httptest.Server
}

func startStack(t *testing.T, tune func(*config.Config)) *stack {
	t.Helper()

	cfg := config.Default()
	cfg.UploadDir = t.TempDir()
	if tune != nil {
		tune(&cfg)
	}

	base := t.TempDir()
	tmp := tmpstore.NewDir(afero.NewOsFs(), base)
	h, srv, err := resthttp.NewServer(context.Background(), &cfg, tmp)
	if err != nil {
		t.Fatal(err)
	}
	rest := httptest.NewServer(h)
	t.Cleanup(func() {
		rest.Close()
		srv.Close()
		_ = tmp.Close()
	})

	return &stack{cfg: &cfg, tmp: tmp, base: base, rest: rest}
}

// waitTmpEmpty ждёт, пока временный каталог опустеет: очистка идёт после
// того, как клиент уже получил ответ.
func (s *stack) waitTmpEmpty(t *testing.T) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		st, err := s.tmp.Stats()
		if err != nil {
			t.Fatal(err)
		}
		if st.Files == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("%d temp files (%d bytes) left in %s", st.Files, st.Bytes, s.tmp.Path())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
