package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"persona-panel/panel"
)

func (h *handler) listPanels(w http.ResponseWriter, r *http.Request) {
	infos := lo.Map(h.manager.List(), func(s *panel.Session, _ int) panel.Info { return s.Info() })
	writeJSON(w, http.StatusOK, infos)
}

func (h *handler) openPanel(w http.ResponseWriter, r *http.Request) {
	s := h.manager.Open(r.Context())
	writeJSON(w, http.StatusCreated, s.Info())
}

func (h *handler) getPanel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, panelFrom(r).Info())
}

func (h *handler) closePanel(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Close(chi.URLParam(r, "id")); err != nil {
		http.Error(w, "panel not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) getNotices(w http.ResponseWriter, r *http.Request) {
	notices := panelFrom(r).Notices()
	if notices == nil {
		notices = []panel.Notice{}
	}
	writeJSON(w, http.StatusOK, notices)
}
