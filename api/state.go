package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"persona-panel/prompt"
)

type templateBody struct {
	Template string `json:"template"`
	Editing  bool   `json:"editing"`
}

// getSettings never returns the API key in clear.
func (h *handler) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, panelFrom(r).Settings().Redacted())
}

// putSettings accepts a partial record; absent keys keep their value.
func (h *handler) putSettings(w http.ResponseWriter, r *http.Request) {
	s := panelFrom(r)
	next := s.Settings().Redacted()
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	saved, err := s.SetSettings(next)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved.Redacted())
}

func (h *handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, editing := panelFrom(r).Template()
	writeJSON(w, http.StatusOK, templateBody{Template: tmpl, Editing: editing})
}

func (h *handler) beginTemplateEdit(w http.ResponseWriter, r *http.Request) {
	tmpl := panelFrom(r).BeginTemplateEdit()
	writeJSON(w, http.StatusOK, templateBody{Template: tmpl, Editing: true})
}

func (h *handler) cancelTemplateEdit(w http.ResponseWriter, r *http.Request) {
	panelFrom(r).CancelTemplateEdit()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) putTemplate(w http.ResponseWriter, r *http.Request) {
	var body templateBody
	if !decode(w, r, &body) {
		return
	}
	s := panelFrom(r)
	if err := s.SaveTemplate(body.Template); err != nil {
		writeError(w, err)
		return
	}
	tmpl, editing := s.Template()
	writeJSON(w, http.StatusOK, templateBody{Template: tmpl, Editing: editing})
}

func (h *handler) resetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl := panelFrom(r).ResetTemplate()
	writeJSON(w, http.StatusOK, templateBody{Template: tmpl})
}

func (h *handler) getPrompts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, panelFrom(r).Prompts())
}

func (h *handler) putPrompts(w http.ResponseWriter, r *http.Request) {
	var set prompt.Set
	if !decode(w, r, &set) {
		return
	}
	writeJSON(w, http.StatusOK, panelFrom(r).SetPrompts(set))
}

func (h *handler) resetPrompts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, panelFrom(r).ResetPrompts())
}

func (h *handler) listHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, panelFrom(r).History())
}

func (h *handler) clearHistory(w http.ResponseWriter, r *http.Request) {
	panelFrom(r).ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) restoreHistory(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid history index", http.StatusBadRequest)
		return
	}
	e, err := panelFrom(r).RestoreHistory(index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
