package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"persona-panel/completion"
	"persona-panel/history"
	"persona-panel/host"
	"persona-panel/panel"
	"persona-panel/persona"
	"persona-panel/settings"
	"persona-panel/worldinfo"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// statusOf maps a panel operation error onto an HTTP status.
func statusOf(err error) int {
	var apiErr *completion.CompletionAPIError
	var hostErr *host.StatusError
	switch {
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, persona.ErrEmpty),
		errors.Is(err, persona.ErrInvalid),
		errors.Is(err, panel.ErrUnnamed),
		errors.Is(err, panel.ErrEmptyTemplate),
		errors.Is(err, panel.ErrUnknownSource):
		return http.StatusBadRequest
	case errors.Is(err, settings.ErrIndependentIncomplete):
		return http.StatusUnprocessableEntity
	case errors.Is(err, panel.ErrNotEditing),
		errors.Is(err, panel.ErrNoDraft),
		errors.Is(err, worldinfo.ErrNoBook):
		return http.StatusConflict
	case errors.Is(err, completion.ErrMainUnavailable),
		errors.Is(err, panel.ErrNoHost),
		errors.Is(err, host.ErrNotConfigured),
		errors.Is(err, worldinfo.ErrAPIMissing):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr),
		errors.As(err, &hostErr),
		errors.Is(err, worldinfo.ErrWriteFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusOf(err))
}
