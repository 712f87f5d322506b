package chat

import "time"

// Message is one persisted chat line. The store assigns IDs at insert time;
// they are strictly increasing across all messages, so ID order is
// chronological order.
type Message struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
