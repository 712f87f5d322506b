package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	chathandler "github.com/5kresetlol-glitch/messenger-server/internal/handler/chat"
	middlewarePkg "github.com/5kresetlol-glitch/messenger-server/internal/middleware"
	chatservice "github.com/5kresetlol-glitch/messenger-server/internal/service/chat"
	"github.com/5kresetlol-glitch/messenger-server/internal/storage"
	"github.com/5kresetlol-glitch/messenger-server/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(hub *chatservice.Hub, store storage.MessageStore, log zerolog.Logger, opts chathandler.Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chathandler.New(hub, store, log, opts)
	chatHandler.RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
