package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/edupulse/a11y-backend/internal/pkg/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubReconnectAndOrdering(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	sessionID := uuid.New()
	channel := SessionChannel(sessionID)

	clientA := hub.NewSSEClient(sessionID)
	hub.AddChannel(clientA, channel)

	first := SSEMessage{Channel: channel, Event: SSEEventNarrationSpeak, Data: map[string]any{"seq": 1}}
	second := SSEMessage{Channel: channel, Event: SSEEventNarrationCancel, Data: map[string]any{"seq": 2}}
	hub.Broadcast(first)
	hub.Broadcast(second)

	gotFirst := recvMessage(t, clientA.Outbound, time.Second)
	gotSecond := recvMessage(t, clientA.Outbound, time.Second)
	if gotFirst.Event != SSEEventNarrationSpeak {
		t.Fatalf("first event: want=%s got=%s", SSEEventNarrationSpeak, gotFirst.Event)
	}
	if gotSecond.Event != SSEEventNarrationCancel {
		t.Fatalf("second event: want=%s got=%s", SSEEventNarrationCancel, gotSecond.Event)
	}

	hub.CloseClient(clientA)
	select {
	case _, ok := <-clientA.Outbound:
		if ok {
			t.Fatalf("clientA outbound should be closed after disconnect")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for clientA channel close")
	}

	clientB := hub.NewSSEClient(sessionID)
	hub.AddChannel(clientB, channel)
	reconnect := SSEMessage{Channel: channel, Event: SSEEventStyleChanged, Data: map[string]any{"seq": 3}}
	hub.Broadcast(reconnect)
	gotReconnect := recvMessage(t, clientB.Outbound, time.Second)
	if gotReconnect.Event != SSEEventStyleChanged {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventStyleChanged, gotReconnect.Event)
	}
}

func TestSSEHubHasListeners(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	sessionID := uuid.New()
	channel := SessionChannel(sessionID)

	if hub.HasListeners(channel) {
		t.Fatalf("empty hub reported listeners")
	}
	client := hub.NewSSEClient(sessionID)
	hub.AddChannel(client, channel)
	if !hub.HasListeners(channel) {
		t.Fatalf("subscribed channel reported no listeners")
	}
	hub.CloseClient(client)
	if hub.HasListeners(channel) {
		t.Fatalf("closed client still counted as listener")
	}
}

func TestSSEHubCloseClientIdempotent(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, SessionChannel(client.SessionID))
	hub.CloseClient(client)
	hub.CloseClient(client) // must not panic
}

func TestSSEHubBroadcastToOtherSessionStaysQuiet(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, SessionChannel(client.SessionID))

	hub.Broadcast(SSEMessage{
		Channel: SessionChannel(uuid.New()),
		Event:   SSEEventNarrationSpeak,
	})
	select {
	case msg := <-client.Outbound:
		t.Fatalf("unexpected delivery: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
