package socket

import (
	"encoding/json"
	"testing"
	"time"
)

func newConnectedClient(t *testing.T, hub *Hub, userID string) *Client {
	t.Helper()
	client := &Client{
		ID:     "client-" + userID,
		UserID: userID,
		Hub:    hub,
		Send:   make(chan []byte, 16),
		Rooms:  make(map[string]bool),
	}
	hub.register <- client
	return client
}

// nextMessageOfType drains the client's send channel until a message of the
// wanted type arrives. Presence broadcasts from registration may come first.
func nextMessageOfType(t *testing.T, client *Client, want MessageType) *Message {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw := <-client.Send:
			var msg Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("unmarshal message: %v", err)
			}
			if msg.Type == want {
				return &msg
			}
		case <-deadline:
			t.Fatalf("no %q message arrived", want)
		}
	}
}

func TestSendNotificationReadReachesUserClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	client := newConnectedClient(t, hub, "user-1")
	b := NewBroadcaster(hub)

	b.SendNotificationRead("user-1", []string{"notif-7"})

	msg := nextMessageOfType(t, client, MessageNotificationRead)
	ids, ok := msg.Payload["ids"].([]interface{})
	if !ok || len(ids) != 1 || ids[0] != "notif-7" {
		t.Errorf("payload ids = %v, want [notif-7]", msg.Payload["ids"])
	}
}

func TestSendNotificationCountCarriesUnread(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	client := newConnectedClient(t, hub, "user-1")
	b := NewBroadcaster(hub)

	b.SendNotificationCount("user-1", 4)

	msg := nextMessageOfType(t, client, MessageNotificationCount)
	count, ok := msg.Payload["count"].(float64)
	if !ok || count != 4 {
		t.Errorf("payload count = %v, want 4", msg.Payload["count"])
	}
}

func TestDirectMessageScopedToUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	mine := newConnectedClient(t, hub, "user-1")
	other := newConnectedClient(t, hub, "user-2")
	b := NewBroadcaster(hub)

	b.SendNotificationCount("user-1", 1)
	nextMessageOfType(t, mine, MessageNotificationCount)

	// user-2 sees presence traffic at most, never the direct message.
	deadline := time.After(200 * time.Millisecond)
	for {
		select {
		case raw := <-other.Send:
			var msg Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("unmarshal message: %v", err)
			}
			if msg.Type == MessageNotificationCount {
				t.Fatal("direct message leaked to another user")
			}
		case <-deadline:
			return
		}
	}
}
