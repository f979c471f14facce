package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/thalassa/internal/handler/chat"
	"github.com/zhouzirui/thalassa/internal/handler/page"
	middlewarePkg "github.com/zhouzirui/thalassa/internal/middleware"
	"github.com/zhouzirui/thalassa/pkg/utils"
)

// NewRouter wires the browser view's routes.
func NewRouter(chatHandler *chat.Handler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", page.Index)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	chatHandler.RegisterRoutes(r)

	return r
}
