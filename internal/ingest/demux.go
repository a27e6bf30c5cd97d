package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"unicode/utf8"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/internal/tmpstore"
)

const copyBufferSize = 32 << 10

type state int

const (
	stateSeekingBoundary state = iota
	stateReadingPartHeaders
	stateReadingPartBody
	statePartComplete
	stateStreamComplete
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateSeekingBoundary:
		return "seeking_boundary"
	case stateReadingPartHeaders:
		return "reading_part_headers"
	case stateReadingPartBody:
		return "reading_part_body"
	case statePartComplete:
		return "part_complete"
	case stateStreamComplete:
		return "stream_complete"
	case stateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type partKind int

const (
	partSkip partKind = iota
	partPlain
	partFile
)

// Demux — автомат разбора multipart-потока. Файловые части пишутся в
// временный каталог, обычные поля копятся в памяти.
type Demux struct {
	mr     *multipart.Reader
	src    *chunkStream
	dir    *tmpstore.Dir
	scope  *tmpstore.Scope
	limits models.ParserLimits
	fields *models.FieldMap

	state state
	err   error

	part        *multipart.Part
	kind        partKind
	name        string
	filename    string
	contentType string
	sink        *tmpstore.SinkFile
	text        bytes.Buffer
	buf         []byte
}

func newDemux(src *chunkStream, boundary string, dir *tmpstore.Dir, scope *tmpstore.Scope, limits models.ParserLimits) *Demux {
	return &Demux{
		mr:     multipart.NewReader(src, boundary),
		src:    src,
		dir:    dir,
		scope:  scope,
		limits: limits,
		fields: models.NewFieldMap(),
		buf:    make([]byte, copyBufferSize),
	}
}

// Run прогоняет автомат до StreamComplete или ошибки.
func (d *Demux) Run() (*models.FieldMap, error) {
	for {
		var err error
		switch d.state {
		case stateSeekingBoundary:
			err = d.seekBoundary()
		case stateReadingPartHeaders:
			err = d.readPartHeaders()
		case stateReadingPartBody:
			err = d.readPartBody()
		case statePartComplete:
			err = d.completePart()
		case stateStreamComplete:
			return d.fields, nil
		case stateFailed:
			return nil, d.err
		}
		if err != nil {
			d.fail(err)
		}
	}
}

func (d *Demux) seekBoundary() error {
	p, err := d.mr.NextPart()
	// штатный конец это только голый io.EOF после закрывающей границы;
	// обрыв до неё NextPart возвращает обёрнутым
	if err == io.EOF {
		d.state = stateStreamComplete
		return nil
	}
	if err != nil {
		return err
	}

	d.part = p
	d.state = stateReadingPartHeaders
	return nil
}

func (d *Demux) readPartHeaders() error {
	disposition, params, err := mime.ParseMediaType(d.part.Header.Get("Content-Disposition"))
	if err != nil {
		return fmt.Errorf("%w: part content-disposition: %w", models.ErrMalformedMultipart, err)
	}
	if disposition != "form-data" {
		return fmt.Errorf("%w: unexpected part disposition %q", models.ErrMalformedMultipart, disposition)
	}

	d.name = params["name"]
	filename, isFile := params["filename"]
	switch {
	case d.name == "":
		d.kind = partSkip
	case isFile && filename == "":
		// поле файла без выбранного файла: ключа в карте не будет
		d.kind = partSkip
	case isFile:
		d.kind = partFile
		d.filename = d.part.FileName()
		d.contentType = d.part.Header.Get("Content-Type")
		if err := d.openSink(); err != nil {
			return err
		}
	default:
		d.kind = partPlain
		d.text.Reset()
	}

	d.state = stateReadingPartBody
	return nil
}

func (d *Demux) openSink() error {
	sink, err := d.dir.OpenUnique()
	if err != nil {
		return err
	}
	if err := d.scope.Track(sink.Path()); err != nil {
		_, _ = sink.Close()
		_ = d.dir.Fs().Remove(sink.Path())
		return err
	}
	d.sink = sink
	return nil
}

func (d *Demux) readPartBody() error {
	var err error
	switch d.kind {
	case partFile:
		_, err = io.CopyBuffer(d.sink, d.part, d.buf)
	case partPlain:
		_, err = io.CopyBuffer(&d.text, d.part, d.buf)
	default:
		_, err = io.CopyBuffer(io.Discard, d.part, d.buf)
	}
	if err != nil {
		return err
	}

	d.state = statePartComplete
	return nil
}

func (d *Demux) completePart() error {
	_ = d.part.Close()
	d.part = nil

	switch d.kind {
	case partFile:
		path, err := d.sink.Close()
		if err != nil {
			return err
		}
		h := &models.UploadHandle{
			ContentType:      d.contentType,
			OriginalFilename: d.filename,
			StoragePath:      path,
			Size:             d.sink.Size(),
		}
		d.sink = nil
		d.scope.Register(h)
		d.fields.Add(d.name, models.UploadValue(h))
	case partPlain:
		if d.limits.ValidateUTF8 && !utf8.Valid(d.text.Bytes()) {
			return fmt.Errorf("%w: field %q is not valid UTF-8", models.ErrMalformedMultipart, d.name)
		}
		d.fields.Add(d.name, models.TextValue(d.text.String()))
	}

	d.state = stateSeekingBoundary
	return nil
}

// fail закрывает открытый файл (его удалит Scope) и переводит автомат в Failed.
func (d *Demux) fail(err error) {
	if d.sink != nil {
		_, _ = d.sink.Close()
		d.sink = nil
	}
	// часть не дочитываем: после ошибки тело запроса больше не читается
	d.part = nil
	d.err = d.classify(err)
	d.state = stateFailed
}

// classify сводит ошибку к таксономии конвейера. Ошибка транспорта важнее
// того, во что её обернул multipart-парсер.
func (d *Demux) classify(err error) error {
	if cause := d.src.Err(); cause != nil {
		err = cause
	}
	for _, known := range []error{
		models.ErrPayloadTooLarge,
		models.ErrReadTimeout,
		models.ErrStorageUnavailable,
		models.ErrMalformedMultipart,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", models.ErrMalformedMultipart, err)
}
