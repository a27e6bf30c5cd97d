package ingest

import (
	"errors"
	"io"
)

type chunkSource interface {
	ReadChunk() ([]byte, error)
}

// chunkStream превращает порции в io.Reader для multipart-парсера и запоминает
// первую ошибку транспорта, чтобы классифицировать её независимо от обёрток парсера.
type chunkStream struct {
	src     chunkSource
	pending []byte
	err     error
}

func newChunkStream(src chunkSource) *chunkStream {
	return &chunkStream{src: src}
}

func (s *chunkStream) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		b, err := s.src.ReadChunk()
		s.pending = b
		if err != nil {
			s.err = err
		}
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Err возвращает ошибку транспорта, кроме штатного конца потока.
func (s *chunkStream) Err() error {
	if s.err == nil || errors.Is(s.err, io.EOF) {
		return nil
	}
	return s.err
}
