package httperrors

import (
	"errors"
	"net/http"

	"github.com/sir_venger/upload_lite/internal/models"
	"github.com/sir_venger/upload_lite/pkg/log"
)

// Status сопоставляет ошибку с HTTP-статусом.
func Status(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrReadTimeout):
		return http.StatusRequestTimeout
	case errors.Is(err, models.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, models.ErrMalformedMultipart):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidField):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Write отвечает клиенту статусом по ошибке. Причины 5xx пишутся в лог,
// клиенту уходит только текст статуса.
func Write(w http.ResponseWriter, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("status", status).Error("request failed")
		http.Error(w, http.StatusText(status), status)
		return
	}
	if status == http.StatusRequestTimeout || status == http.StatusRequestEntityTooLarge {
		// тело дочитано не до конца: соединение переиспользовать нельзя
		w.Header().Set("Connection", "close")
	}
	http.Error(w, err.Error(), status)
}
