package chat

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/5kresetlol-glitch/messenger-server/internal/model/chat"
)

// Hub fans outbound events out to every registered session. Delivery is
// best-effort per recipient: a closed or saturated session never aborts
// delivery to the rest. Each session's queue is FIFO, so two broadcasts
// issued sequentially arrive in order at every recipient that gets both.
type Hub struct {
	registry *Registry
	log      zerolog.Logger
}

func NewHub(registry *Registry, log zerolog.Logger) *Hub {
	return &Hub{registry: registry, log: log}
}

// Registry exposes the membership the hub delivers to.
func (h *Hub) Registry() *Registry { return h.registry }

// Broadcast serializes the event once and enqueues it to every session in
// the current registry snapshot. A recipient whose queue is full is closed
// and left for its own handler to deregister; the hub never mutates the
// registry itself.
func (h *Hub) Broadcast(event chat.Event) {
	payload, err := chat.Encode(event)
	if err != nil {
		h.log.Error().Err(err).Msg("encode broadcast event")
		return
	}

	for _, s := range h.registry.Snapshot() {
		h.deliver(payload, s)
	}
}

// Send is the unicast variant used for history replay: it delivers to
// exactly one session, bypassing the registry.
func (h *Hub) Send(event chat.Event, s *Session) error {
	payload, err := chat.Encode(event)
	if err != nil {
		return err
	}
	return s.Enqueue(payload)
}

func (h *Hub) deliver(payload []byte, s *Session) {
	switch err := s.Enqueue(payload); {
	case err == nil:
	case errors.Is(err, ErrSendQueueFull):
		// The client stopped draining; treat it like a dead transport.
		h.log.Warn().Str("client", s.ClientID).Msg("send queue full, closing session")
		s.Close()
	case errors.Is(err, ErrSessionClosed):
		h.log.Debug().Str("client", s.ClientID).Msg("skipping closed session")
	default:
		h.log.Warn().Err(err).Str("client", s.ClientID).Msg("broadcast delivery failed")
	}
}

// CloseAll retires every registered session; used during shutdown. Handlers
// observe the close and deregister themselves.
func (h *Hub) CloseAll() {
	for _, s := range h.registry.Snapshot() {
		s.Close()
	}
}
