package api

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"persona-panel/panel"
)

// RegisterRoutes builds the HTTP handler. staticFS may be nil, in which case
// only the API is served.
func RegisterRoutes(manager *panel.Manager, staticFS fs.FS, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	h := &handler{manager: manager, log: log}

	r.Get("/api/panels", h.listPanels)
	r.Post("/api/panels", h.openPanel)
	r.Route("/api/panels/{id}", func(r chi.Router) {
		r.Use(h.withPanel)
		r.Get("/", h.getPanel)
		r.Delete("/", h.closePanel)

		// WebSocket
		r.Get("/ws", h.handleWS)
		r.Get("/notices", h.getNotices)

		r.Get("/settings", h.getSettings)
		r.Put("/settings", h.putSettings)

		r.Get("/template", h.getTemplate)
		r.Put("/template", h.putTemplate)
		r.Delete("/template", h.resetTemplate)
		r.Post("/template/edit", h.beginTemplateEdit)
		r.Delete("/template/edit", h.cancelTemplateEdit)

		r.Get("/prompts", h.getPrompts)
		r.Put("/prompts", h.putPrompts)
		r.Delete("/prompts", h.resetPrompts)

		r.Get("/history", h.listHistory)
		r.Delete("/history", h.clearHistory)
		r.Get("/history/{index}", h.restoreHistory)

		r.Post("/generate", h.generate)
		r.Post("/refine", h.refine)
		r.Post("/snapshot", h.snapshot)
		r.Post("/persona", h.savePersona)
		r.Post("/worldinfo/sync", h.syncWorldInfo)
		r.Get("/worldinfo/books", h.listBooks)
	})

	if staticFS != nil {
		// Serve the page by reading it directly; http.FileServer would
		// redirect a path ending in index.html to "./".
		r.Get("/", serveFile(staticFS, "index.html"))
		fileServer := http.FileServer(http.FS(staticFS))
		r.Get("/css/*", fileServer.ServeHTTP)
		r.Get("/js/*", fileServer.ServeHTTP)
	}

	return r
}

// serveFile returns a handler that reads a single file from fsys and sends it.
func serveFile(fsys fs.FS, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(content)
	}
}

type handler struct {
	manager *panel.Manager
	log     *slog.Logger
}

type ctxKey struct{}

// withPanel resolves {id} to an open session.
func (h *handler) withPanel(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.manager.Get(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "panel not found", http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, s)))
	})
}

func panelFrom(r *http.Request) *panel.Session {
	return r.Context().Value(ctxKey{}).(*panel.Session)
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
