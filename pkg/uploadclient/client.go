package uploadclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/pkg/uploadproto"
	"golang.org/x/sync/errgroup"
)

const maxErrorBody = 4 << 10

// ProductRequest — форма товара. Photo необязателен и читается потоково.
type ProductRequest struct {
	Title string
	Price string

	Photo            io.Reader
	PhotoName        string
	PhotoContentType string
	// PhotoSize нужен только для индикатора прогресса, 0 если неизвестен.
	PhotoSize int64
}

type Client interface {
	// CreateProduct Отправить форму товара с фото
	CreateProduct(ctx context.Context, baseURL string, req ProductRequest) (models.Product, error)
	// GetProduct Получить карточку товара
	GetProduct(ctx context.Context, baseURL, id string) (models.Product, error)
	// FetchPhoto Скачать сохранённое фото
	FetchPhoto(ctx context.Context, baseURL string, photo models.StoredPhoto) (io.ReadCloser, error)
}

// StatusError — ответ сервиса с кодом не 2xx.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upload_lite: %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

type httpClient struct {
	c        *http.Client
	progress io.Writer
}

// Option настраивает клиента.
type Option func(*httpClient)

// WithHTTPClient задаёт http.Client вместо клиента по умолчанию.
func WithHTTPClient(c *http.Client) Option {
	return func(h *httpClient) {
		h.c = c
	}
}

// WithProgress включает индикатор прогресса в out.
func WithProgress(out io.Writer) Option {
	return func(h *httpClient) {
		h.progress = out
	}
}

// New создаёт HTTP-клиент по умолчанию.
func New(opts ...Option) Client {
	h := &httpClient{c: &http.Client{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CreateProduct отправляет форму, не собирая тело в памяти: multipart пишется
// в pipe параллельно с отправкой запроса.
func (h *httpClient) CreateProduct(ctx context.Context, baseURL string, req ProductRequest) (models.Product, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	var bar *progressBar
	if req.Photo != nil {
		bar = newProgressBar(h.progress, fmt.Sprintf("Uploading %s", req.PhotoName), req.PhotoSize)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := writeForm(mw, req, bar)
		_ = pw.CloseWithError(err)
		return err
	})

	var product models.Product
	g.Go(func() error {
		defer pr.Close()

		httpReq, err := http.NewRequestWithContext(gctx, http.MethodPost, strings.TrimRight(baseURL, "/")+uploadproto.ProductsPath, pr)
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", mw.FormDataContentType())

		resp, err := h.c.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			return statusError(resp)
		}
		return json.NewDecoder(resp.Body).Decode(&product)
	})

	if err := g.Wait(); err != nil {
		bar.Fail(err)
		return models.Product{}, err
	}
	bar.Finish()
	return product, nil
}

func writeForm(mw *multipart.Writer, req ProductRequest, bar *progressBar) error {
	if err := mw.WriteField(uploadproto.FieldTitle, req.Title); err != nil {
		return err
	}
	if err := mw.WriteField(uploadproto.FieldPrice, req.Price); err != nil {
		return err
	}

	if req.Photo != nil {
		ct := req.PhotoContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			uploadproto.FieldPhoto, escapeQuotes(req.PhotoName)))
		hdr.Set("Content-Type", ct)

		part, err := mw.CreatePart(hdr)
		if err != nil {
			return err
		}
		bar.render(true, "")
		if _, err := io.Copy(part, io.TeeReader(req.Photo, progressWriter{bar: bar})); err != nil {
			return err
		}
	}

	return mw.Close()
}

// GetProduct скачивает карточку товара.
func (h *httpClient) GetProduct(ctx context.Context, baseURL, id string) (models.Product, error) {
	u := fmt.Sprintf(uploadproto.ProductPathFormat, strings.TrimRight(baseURL, "/"), id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.Product{}, err
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return models.Product{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Product{}, statusError(resp)
	}

	var p models.Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// FetchPhoto скачивает фото и возвращает поток с телом.
func (h *httpClient) FetchPhoto(ctx context.Context, baseURL string, photo models.StoredPhoto) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+photo.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}

	bar := newProgressBar(h.progress, fmt.Sprintf("Downloading %s", photo.Name), resp.ContentLength)
	bar.render(true, "")
	return newProgressReadCloser(resp.Body, bar), nil
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
