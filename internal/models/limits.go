package models

import (
	"fmt"
	"time"
)

const (
	DefaultMaxBodyBytes   int64 = 8_000_000
	DefaultReadChunkBytes       = 1_000_000
	DefaultReadTimeout          = 15 * time.Second
)

// ParserLimits ограничивает разбор одного запроса. Значение неизменяемо на время запроса.
type ParserLimits struct {
	MaxBodyBytes   int64
	ReadChunkBytes int
	ReadTimeout    time.Duration
	ValidateUTF8   bool
}

// DefaultLimits возвращает лимиты по умолчанию.
func DefaultLimits() ParserLimits {
	return ParserLimits{
		MaxBodyBytes:   DefaultMaxBodyBytes,
		ReadChunkBytes: DefaultReadChunkBytes,
		ReadTimeout:    DefaultReadTimeout,
		ValidateUTF8:   true,
	}
}

// Validate проверяет, что лимиты пригодны для разбора.
func (l ParserLimits) Validate() error {
	if l.MaxBodyBytes < 0 {
		return fmt.Errorf("max body bytes must be >= 0, got %d", l.MaxBodyBytes)
	}
	if l.ReadChunkBytes <= 0 {
		return fmt.Errorf("read chunk bytes must be > 0, got %d", l.ReadChunkBytes)
	}
	if l.ReadTimeout < 0 {
		return fmt.Errorf("read timeout must be >= 0, got %s", l.ReadTimeout)
	}
	return nil
}
