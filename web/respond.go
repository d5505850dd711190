package web

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"library-catalog/library"
	"library-catalog/logging"
)

// envelope is the {success, ...} shape every endpoint answers with.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("write response")
	}
}

func ok(w http.ResponseWriter, r *http.Request, body envelope) {
	if body == nil {
		body = envelope{}
	}
	body["success"] = true
	writeJSON(w, r, http.StatusOK, body)
}

// fail maps err onto a status code and a user-facing message.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, r, status, envelope{"success": false, "error": library.UserMessage(err)})
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, r, http.StatusBadRequest, envelope{"success": false, "error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, library.ErrExternal):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
