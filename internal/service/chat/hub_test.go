package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/5kresetlol-glitch/messenger-server/internal/model/chat"
	"github.com/5kresetlol-glitch/messenger-server/pkg/logx"
)

func receivePayload(t *testing.T, s *Session) []byte {
	t.Helper()
	select {
	case payload := <-s.Outbound():
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

func TestHubBroadcastReachesEveryMember(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry, logx.Nop())

	alice := NewSession("alice", 4)
	bob := NewSession("bob", 4)
	registry.Join(alice)
	registry.Join(bob)

	hub.Broadcast(chat.ChatEvent{Sender: "alice", Text: "hi"})

	for _, s := range []*Session{alice, bob} {
		var got struct {
			Sender string `json:"sender"`
			Text   string `json:"text"`
		}
		require.NoError(t, json.Unmarshal(receivePayload(t, s), &got))
		require.Equal(t, "alice", got.Sender)
		require.Equal(t, "hi", got.Text)
	}
}

func TestHubPerRecipientOrdering(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry, logx.Nop())

	s := NewSession("alice", 8)
	registry.Join(s)

	hub.Broadcast(chat.ChatEvent{Sender: "alice", Text: "first"})
	hub.Broadcast(chat.ChatEvent{Sender: "alice", Text: "second"})

	var first, second struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(receivePayload(t, s), &first))
	require.NoError(t, json.Unmarshal(receivePayload(t, s), &second))
	require.Equal(t, "first", first.Text)
	require.Equal(t, "second", second.Text)
}

func TestHubFullQueueClosesOnlyThatSession(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry, logx.Nop())

	stuck := NewSession("stuck", 1)
	healthy := NewSession("healthy", 4)
	registry.Join(stuck)
	registry.Join(healthy)

	hub.Broadcast(chat.SystemEvent{Text: "one"})
	hub.Broadcast(chat.SystemEvent{Text: "two"}) // overflows stuck's queue

	require.True(t, stuck.Closed())
	require.False(t, healthy.Closed())

	// The healthy session still got both broadcasts in order.
	var got struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(receivePayload(t, healthy), &got))
	require.Equal(t, "one", got.Text)
	require.NoError(t, json.Unmarshal(receivePayload(t, healthy), &got))
	require.Equal(t, "two", got.Text)

	// The hub never reaps registry entries itself.
	require.Equal(t, 2, registry.Len())
}

func TestHubBroadcastSkipsClosedSession(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry, logx.Nop())

	gone := NewSession("gone", 4)
	registry.Join(gone)
	gone.Close()

	hub.Broadcast(chat.SystemEvent{Text: "anyone there"})

	select {
	case payload := <-gone.Outbound():
		t.Fatalf("closed session received payload %s", payload)
	default:
	}
}

func TestHubSendUnicast(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry, logx.Nop())

	alice := NewSession("alice", 4)
	bob := NewSession("bob", 4)
	registry.Join(alice)
	registry.Join(bob)

	require.NoError(t, hub.Send(chat.HistoryEvent{Message: chat.Message{ID: 1, Sender: "old", Text: "line"}}, alice))

	require.NotNil(t, receivePayload(t, alice))
	select {
	case <-bob.Outbound():
		t.Fatal("unicast leaked to another session")
	default:
	}
}

func TestHubCloseAll(t *testing.T) {
	registry := NewRegistry()
	hub := NewHub(registry, logx.Nop())

	a := NewSession("a", 4)
	b := NewSession("b", 4)
	registry.Join(a)
	registry.Join(b)

	hub.CloseAll()
	require.True(t, a.Closed())
	require.True(t, b.Closed())
}
