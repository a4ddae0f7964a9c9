// Package handlers provides HTTP handlers for the showroom API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spherical-ai/spherical/libs/showroom/internal/domain"
	"github.com/spherical-ai/spherical/libs/showroom/internal/locale"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}

// statusFor maps a domain error kind to an HTTP status.
func statusFor(err error) int {
	switch domain.TypeOf(err) {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeNotFound:
		return http.StatusNotFound
	case domain.ErrorTypeState:
		return http.StatusConflict
	case domain.ErrorTypeAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes err with the status of its kind. Server-side
// failures are logged.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *observability.Logger, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
	}

	detail := err.Error()
	var de *domain.DomainError
	if errors.As(err, &de) {
		detail = de.Message
	}
	writeError(w, status, message, detail)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024))
	if err := dec.Decode(dst); err != nil {
		return domain.ValidationError("invalid request body", err)
	}
	return nil
}

// requestLocale takes the {locale} path segment, falling back to the
// Accept-Language header.
func requestLocale(r *http.Request) locale.Locale {
	if raw := chi.URLParam(r, "locale"); raw != "" {
		return locale.Parse(raw)
	}
	return locale.FromAcceptLanguage(r.Header.Get("Accept-Language"))
}
