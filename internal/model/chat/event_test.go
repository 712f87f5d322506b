package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncodeChatEvent(t *testing.T) {
	payload, err := Encode(ChatEvent{Sender: "alice", Text: "hi"})
	require.NoError(t, err)
	require.JSONEq(t, `{"sender":"alice","text":"hi"}`, string(payload))
}

func TestEncodeSystemEventUsesReservedSender(t *testing.T) {
	payload, err := Encode(SystemEvent{Text: "notice"})
	require.NoError(t, err)
	require.JSONEq(t, `{"sender":"Сервер","text":"notice"}`, string(payload))
}

func TestEncodeRosterEvent(t *testing.T) {
	payload, err := Encode(RosterEvent{Users: []string{"alice", "bob"}})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"user_list","users":["alice","bob"]}`, string(payload))
}

func TestEncodeRosterEventEmpty(t *testing.T) {
	payload, err := Encode(RosterEvent{})
	require.NoError(t, err)
	// An empty roster must serialize as [], not null.
	require.JSONEq(t, `{"type":"user_list","users":[]}`, string(payload))
}

func TestEncodeHistoryEvent(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	payload, err := Encode(HistoryEvent{Message: Message{
		ID:        7,
		Sender:    "alice",
		Text:      "hi",
		CreatedAt: created,
	}})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":7,"sender":"alice","text":"hi","timestamp":"2024-05-01T12:30:00Z"}`, string(payload))
}
