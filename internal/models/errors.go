package models

import "errors"

// Ошибки конвейера приёма multipart-загрузок. Все они терминальны для запроса.
var (
	ErrReadTimeout          = errors.New("read timeout")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrMalformedMultipart   = errors.New("malformed multipart body")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrStorageUnavailable   = errors.New("temporary storage unavailable")
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidField = errors.New("invalid field")
	ErrNotOwned     = errors.New("upload is not owned by this request")
)
