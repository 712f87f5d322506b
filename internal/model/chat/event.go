package chat

import (
	"encoding/json"
	"time"
)

// SystemSender is the sender name clients match on to distinguish server
// notices (join/leave/error) from user messages.
const SystemSender = "Сервер"

// Event is one outbound frame. The variants below are the closed set of
// shapes the server ever emits; every emission site goes through Encode so
// the wire schema stays consistent.
type Event interface {
	wire() any
}

// ChatEvent carries a relayed user message.
type ChatEvent struct {
	Sender string
	Text   string
}

// SystemEvent is a server notice delivered with the reserved system sender.
type SystemEvent struct {
	Text string
}

// RosterEvent announces the current set of connected client IDs.
type RosterEvent struct {
	Users []string
}

// HistoryEvent replays one persisted message to a newly joined session.
type HistoryEvent struct {
	Message Message
}

func (e ChatEvent) wire() any {
	return struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	}{e.Sender, e.Text}
}

func (e SystemEvent) wire() any {
	return struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	}{SystemSender, e.Text}
}

func (e RosterEvent) wire() any {
	users := e.Users
	if users == nil {
		users = []string{}
	}
	return struct {
		Type  string   `json:"type"`
		Users []string `json:"users"`
	}{"user_list", users}
}

func (e HistoryEvent) wire() any {
	return struct {
		ID        int64  `json:"id"`
		Sender    string `json:"sender"`
		Text      string `json:"text"`
		Timestamp string `json:"timestamp"`
	}{e.Message.ID, e.Message.Sender, e.Message.Text, e.Message.CreatedAt.Format(time.RFC3339)}
}

// Encode serializes an event to its wire form. Broadcast paths encode once
// and reuse the bytes for every recipient.
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e.wire())
}
