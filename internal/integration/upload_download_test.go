package integration

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/pkg/uploadclient"
	"golang.org/x/sync/errgroup"
)

func Test_CreateProduct_PhotoIntegrity(t *testing.T) {
	s := startStack(t, nil)
	cli := uploadclient.New()

	photo := bytes.Repeat([]byte{0x89, 0x50, 0x4E, 0x47}, 50_000) // 200,000 bytes
	want := sha256.Sum256(photo)

	p, err := cli.CreateProduct(context.Background(), s.rest.URL, uploadclient.ProductRequest{
		Title:            "Metaprogramming Elixir",
		Price:            "15.000000",
		Photo:            bytes.NewReader(photo),
		PhotoName:        "meta-cover.png",
		PhotoContentType: "image/png",
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.Photo == nil || p.Photo.OriginalFilename != "meta-cover.png" || p.Photo.ContentType != "image/png" {
		t.Fatalf("photo = %+v", p.Photo)
	}
	if p.Photo.Size != int64(len(photo)) {
		t.Fatalf("size = %d, want %d", p.Photo.Size, len(photo))
	}
	if _, err := os.Stat(filepath.Join(s.cfg.UploadDir, p.Photo.Name)); err != nil {
		t.Fatalf("persisted photo: %v", err)
	}

	stored, err := cli.GetProduct(context.Background(), s.rest.URL, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	rc, err := cli.FetchPhoto(context.Background(), s.rest.URL, *stored.Photo)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	if sha256.Sum256(got) != want {
		t.Fatalf("sha mismatch")
	}

	s.waitTmpEmpty(t)
}

func Test_CreateProduct_NoPhotoSelected(t *testing.T) {
	s := startStack(t, nil)

	// браузер шлёт пустое файловое поле, если файл не выбран
	body := "--b\r\n" +
		"Content-Disposition: form-data; name=\"title\"\r\n\r\nMetaprogramming Elixir\r\n" +
		"--b\r\n" +
		"Content-Disposition: form-data; name=\"price\"\r\n\r\n15.000000\r\n" +
		"--b\r\n" +
		"Content-Disposition: form-data; name=\"photo\"; filename=\"\"\r\n" +
		"Content-Type: application/octet-stream\r\n\r\n\r\n" +
		"--b--\r\n"

	resp, err := http.Post(s.rest.URL+"/products", "multipart/form-data; boundary=b", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %s: %s", resp.Status, b)
	}
	if bytes.Contains(b, []byte(`"photo"`)) {
		t.Fatalf("product has photo: %s", b)
	}

	s.waitTmpEmpty(t)
}

func Test_CreateProduct_ConcurrentUploads(t *testing.T) {
	s := startStack(t, nil)
	cli := uploadclient.New()

	const n = 8
	products := make([]models.Product, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			photo := bytes.Repeat([]byte{byte(i)}, 100_000+i)
			p, err := cli.CreateProduct(context.Background(), s.rest.URL, uploadclient.ProductRequest{
				Title:     fmt.Sprintf("product %d", i),
				Price:     "1",
				Photo:     bytes.NewReader(photo),
				PhotoName: "same-name.png",
			})
			products[i] = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	for i, p := range products {
		if p.Photo == nil || seen[p.Photo.Name] {
			t.Fatalf("product %d photo = %+v", i, p.Photo)
		}
		seen[p.Photo.Name] = true
		if p.Photo.Size != int64(100_000+i) {
			t.Fatalf("product %d size = %d", i, p.Photo.Size)
		}
	}

	s.waitTmpEmpty(t)
}
