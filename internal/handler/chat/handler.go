package chat

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	chatservice "github.com/5kresetlol-glitch/messenger-server/internal/service/chat"
	"github.com/5kresetlol-glitch/messenger-server/internal/storage"
	"github.com/5kresetlol-glitch/messenger-server/pkg/utils"
)

// Options tunes per-connection behavior.
type Options struct {
	HistoryLimit      int
	SendQueueSize     int
	MessageRatePerSec float64
	MessageBurst      int
}

// Handler owns the websocket endpoint and the read-side chat endpoints.
type Handler struct {
	hub      *chatservice.Hub
	store    storage.MessageStore
	log      zerolog.Logger
	opts     Options
	upgrader websocket.Upgrader
}

// New creates the chat handler.
func New(hub *chatservice.Hub, store storage.MessageStore, log zerolog.Logger, opts Options) *Handler {
	return &Handler{
		hub:   hub,
		store: store,
		log:   log,
		opts:  opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{clientID}", h.handleWebSocket)
	r.Get("/api/history", h.handleHistory)
	r.Get("/api/roster", h.handleRoster)
}

// handleHistory serves the most recent messages in chronological order.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := h.opts.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	messages, err := h.store.RecentHistory(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("history query failed")
		utils.RespondError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleRoster serves the currently connected client IDs.
func (h *Handler) handleRoster(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string][]string{
		"users": h.hub.Registry().Roster(),
	})
}
