package api

import (
	"net/http"

	"persona-panel/panel"
	"persona-panel/worldinfo"
)

type draftBody struct {
	YAML        string `json:"yaml"`
	Instruction string `json:"instruction,omitempty"`
}

func (h *handler) generate(w http.ResponseWriter, r *http.Request) {
	var in panel.GenerateInput
	if !decode(w, r, &in) {
		return
	}
	d, err := panelFrom(r).Generate(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handler) refine(w http.ResponseWriter, r *http.Request) {
	var in panel.RefineInput
	if !decode(w, r, &in) {
		return
	}
	d, err := panelFrom(r).Refine(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handler) snapshot(w http.ResponseWriter, r *http.Request) {
	var body draftBody
	if !decode(w, r, &body) {
		return
	}
	e, err := panelFrom(r).Snapshot(body.YAML, body.Instruction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *handler) savePersona(w http.ResponseWriter, r *http.Request) {
	var body draftBody
	if !decode(w, r, &body) {
		return
	}
	res, err := panelFrom(r).SavePersona(r.Context(), body.YAML)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) syncWorldInfo(w http.ResponseWriter, r *http.Request) {
	var body draftBody
	if !decode(w, r, &body) {
		return
	}
	res, err := panelFrom(r).SyncWorldInfo(r.Context(), body.YAML)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// listBooks returns the polled list; ?refresh=1 polls first.
func (h *handler) listBooks(w http.ResponseWriter, r *http.Request) {
	s := panelFrom(r)
	if r.URL.Query().Get("refresh") != "" {
		if err := s.RefreshBooks(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	}
	books := s.Books()
	if books == nil {
		books = []worldinfo.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}
