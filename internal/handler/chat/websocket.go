package chat

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/5kresetlol-glitch/messenger-server/internal/model/chat"
	chatservice "github.com/5kresetlol-glitch/messenger-server/internal/service/chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// handleWebSocket runs one client connection from accept to cleanup:
// join the registry, announce the roster, replay history to this session
// only, then relay inbound text as persisted broadcasts until the remote
// side goes away.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	if clientID == "" {
		http.Error(w, "clientID is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("client", clientID).Msg("websocket upgrade failed")
		return
	}

	session := chatservice.NewSession(clientID, h.opts.SendQueueSize)
	go h.writePump(conn, session)
	h.runSession(r.Context(), conn, session)
}

// runSession is the session state machine: Joined on entry, Active for the
// read loop, Closing/Closed in the deferred teardown.
func (h *Handler) runSession(ctx context.Context, conn *websocket.Conn, session *chatservice.Session) {
	registry := h.hub.Registry()
	defer h.teardown(session)

	if displaced := registry.Join(session); displaced != nil {
		// Duplicate clientID: the newcomer wins, the old session is told
		// and retired. Its cleanup is a no-op against the new entry.
		h.log.Info().Str("client", session.ClientID).Msg("existing session displaced by new connection")
		_ = h.hub.Send(chat.SystemEvent{
			Text: fmt.Sprintf("Сессия '%s' заменена новым подключением.", session.ClientID),
		}, displaced)
		displaced.Close()
	}
	h.log.Info().Str("client", session.ClientID).Int("online", registry.Len()).Msg("client joined")

	h.hub.Broadcast(chat.RosterEvent{Users: registry.Roster()})
	h.replayHistory(ctx, session)
	h.hub.Broadcast(chat.SystemEvent{
		Text: fmt.Sprintf("Пользователь '%s' присоединился к чату.", session.ClientID),
	})

	h.readLoop(ctx, conn, session)
}

// readLoop relays inbound frames. Every accepted message is persisted
// before it is broadcast, so anything a recipient sees is already durable.
func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, session *chatservice.Session) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := rate.NewLimiter(rate.Limit(h.opts.MessageRatePerSec), h.opts.MessageBurst)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Str("client", session.ClientID).Msg("websocket read failed")
			}
			return
		}

		text := string(data)
		if text == "" {
			continue
		}

		if !limiter.Allow() {
			_ = h.hub.Send(chat.SystemEvent{
				Text: "Слишком много сообщений, подождите немного.",
			}, session)
			continue
		}

		msg, err := h.store.Append(ctx, session.ClientID, text)
		if err != nil {
			// Dropped from broadcast: only durable messages go out. The
			// sender is told, nobody else sees anything.
			h.log.Error().Err(err).Str("client", session.ClientID).Msg("message append failed")
			_ = h.hub.Send(chat.SystemEvent{
				Text: "Сообщение не доставлено, попробуйте ещё раз.",
			}, session)
			continue
		}

		h.hub.Broadcast(chat.ChatEvent{Sender: msg.Sender, Text: msg.Text})
	}
}

// replayHistory unicasts recent messages, oldest first, to the new session.
// A failing store degrades to an empty replay rather than blocking the join.
func (h *Handler) replayHistory(ctx context.Context, session *chatservice.Session) {
	if h.opts.HistoryLimit <= 0 {
		return
	}
	messages, err := h.store.RecentHistory(ctx, h.opts.HistoryLimit)
	if err != nil {
		h.log.Warn().Err(err).Str("client", session.ClientID).Msg("history replay degraded to empty")
		return
	}
	for _, m := range messages {
		if err := h.hub.Send(chat.HistoryEvent{Message: m}, session); err != nil {
			return
		}
	}
}

// teardown is the Closing → Closed transition. Leave is idempotent and
// ownership-checked, so the error path and the displacement path can both
// run it without disturbing a replacement session; the departure is only
// announced when this session actually held the registry entry.
func (h *Handler) teardown(session *chatservice.Session) {
	session.Close()
	if !h.hub.Registry().Leave(session) {
		return
	}
	h.log.Info().Str("client", session.ClientID).Int("online", h.hub.Registry().Len()).Msg("client left")
	h.hub.Broadcast(chat.SystemEvent{
		Text: fmt.Sprintf("Пользователь '%s' покинул чат.", session.ClientID),
	})
	h.hub.Broadcast(chat.RosterEvent{Users: h.hub.Registry().Roster()})
}

// writePump drains the session queue onto the wire and keeps the
// connection alive with pings. It owns all writes to the connection.
func (h *Handler) writePump(conn *websocket.Conn, session *chatservice.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case payload := <-session.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				session.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				session.Close()
				return
			}
		case <-session.Done():
			// Flush anything still queued (e.g. a final notice) before
			// saying goodbye.
			for {
				select {
				case payload := <-session.Outbound():
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
						return
					}
				default:
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}
