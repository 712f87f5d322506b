package storage

import (
	"context"
	"errors"

	"github.com/5kresetlol-glitch/messenger-server/internal/model/chat"
)

var ErrURLRequired = errors.New("database url is required")

// MessageStore is the durable append-only log of chat messages.
//
// Append is atomic: either the row is fully committed and visible, or the
// call fails and nothing was written. RecentHistory returns up to limit of
// the most recent messages in ascending id order; an empty store yields an
// empty slice, not an error.
type MessageStore interface {
	Append(ctx context.Context, sender, text string) (chat.Message, error)
	RecentHistory(ctx context.Context, limit int) ([]chat.Message, error)
	Ping(ctx context.Context) error
	Close() error
}
