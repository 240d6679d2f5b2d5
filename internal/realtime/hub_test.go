package realtime

import (
	"testing"
	"time"

	"github.com/mcoot/tictactoe-rooms/internal/model"
	"github.com/mcoot/tictactoe-rooms/internal/testutil"
)

// newTestClient returns a client with no socket behind it, so tests can
// read its send buffer directly
func newTestClient(id string, buffer int) *Client {
	return &Client{
		id:     model.ConnectionID(id),
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
		logger: testutil.NopLogger(),
	}
}

func expectMessage(t *testing.T, client *Client, want string) {
	t.Helper()
	select {
	case msg := <-client.send:
		if string(msg) != want {
			t.Errorf("client %s received %q, want %q", client.id, string(msg), want)
		}
	case <-time.After(100 * time.Millisecond):
		t.Errorf("client %s did not receive message", client.id)
	}
}

func expectNoMessage(t *testing.T, client *Client) {
	t.Helper()
	select {
	case msg := <-client.send:
		t.Errorf("client %s received unexpected %q", client.id, string(msg))
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHub_SubscribeAndBroadcast(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := newTestClient("c1", 4)
	hub.Subscribe(client)

	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", hub.ClientCount())
	}

	hub.Broadcast(nil, []byte("hello"))
	expectMessage(t, client, "hello")
}

func TestHub_BroadcastSkipsOrigin(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	origin := newTestClient("origin", 4)
	peer1 := newTestClient("peer1", 4)
	peer2 := newTestClient("peer2", 4)
	hub.Subscribe(origin)
	hub.Subscribe(peer1)
	hub.Subscribe(peer2)

	hub.Broadcast(origin, []byte("update"))

	expectMessage(t, peer1, "update")
	expectMessage(t, peer2, "update")
	expectNoMessage(t, origin)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := newTestClient("c1", 4)
	hub.Subscribe(client)
	hub.Unsubscribe(client)

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after unsubscribe, want 0", hub.ClientCount())
	}

	hub.Broadcast(nil, []byte("hello"))
	expectNoMessage(t, client)

	// Unsubscribing twice is harmless
	hub.Unsubscribe(client)
}

func TestHub_SlowClientDoesNotBlockOthers(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	slow := newTestClient("slow", 1)
	fast := newTestClient("fast", 8)
	hub.Subscribe(slow)
	hub.Subscribe(fast)

	for _, msg := range []string{"one", "two", "three"} {
		hub.Broadcast(nil, []byte(msg))
	}

	expectMessage(t, fast, "one")
	expectMessage(t, fast, "two")
	expectMessage(t, fast, "three")

	// Let the last fan-out finish before inspecting the full buffer
	time.Sleep(20 * time.Millisecond)
	if len(slow.send) != 1 {
		t.Errorf("slow client buffered %d messages, want 1", len(slow.send))
	}
	expectMessage(t, slow, "one")
}

func TestHub_ClosedClientIsSkipped(t *testing.T) {
	client := newTestClient("c1", 4)
	client.Close()

	if client.Send([]byte("late")) {
		t.Error("Send() on a closed client returned true")
	}
}

func TestHub_BroadcastAfterCloseIsDropped(t *testing.T) {
	hub := NewHub("room-1", testutil.NopLogger())
	go hub.Run()

	client := newTestClient("c1", 4)
	hub.Subscribe(client)
	hub.Close()
	hub.Close()

	hub.Broadcast(nil, []byte("late"))
	expectNoMessage(t, client)
}

func TestHubManager_GetOrCreateHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())

	hub1 := manager.GetOrCreateHub("room-1")
	if hub1 == nil {
		t.Fatal("GetOrCreateHub() returned nil")
	}
	defer manager.RemoveHub("room-1")

	hub2 := manager.GetOrCreateHub("room-1")
	if hub1 != hub2 {
		t.Error("GetOrCreateHub() returned a different hub for the same room")
	}

	if manager.GetHub("room-1") != hub1 {
		t.Error("GetHub() did not return the existing hub")
	}
	if manager.GetHub("room-2") != nil {
		t.Error("GetHub() returned a hub for an unknown room")
	}
}

func TestHubManager_RemoveHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	manager.GetOrCreateHub("room-1")

	manager.RemoveHub("room-1")

	if manager.GetHub("room-1") != nil {
		t.Error("GetHub() returned a removed hub")
	}
	if manager.HubCount() != 0 {
		t.Errorf("HubCount() = %d, want 0", manager.HubCount())
	}

	// Removing an unknown hub is a no-op
	manager.RemoveHub("room-1")
}
