package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	contractx "github.com/assurlab/sydia-agent/agent/contract"
)

func TestPublishBlindDeliversToSubscriber(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bus.PublishBlind(contractx.Event{
		Action:   "sinistre_cloture",
		Endpoint: "sinistre/cloturer",
		Data:     map[string]any{"ref_sinistre": "MCP-1700000000"},
	})

	select {
	case msg := <-msgs:
		var ev contractx.Event
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			t.Fatalf("payload is not an event: %v", err)
		}
		if ev.Action != "sinistre_cloture" {
			t.Fatalf("unexpected action: %s", ev.Action)
		}
		if ev.Timestamp.IsZero() {
			t.Fatal("timestamp must be filled on publish")
		}
		if ev.Fields == nil {
			t.Fatal("fields must never be nil on the wire")
		}
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestPublishBlindWithoutSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	defer bus.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			bus.PublishBlind(contractx.Event{Action: "assure_updated"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing without listeners must not block")
	}
}

func TestPublishBlindDoesNotBlockOnStalledSubscriber(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Subscribe but never consume, so the output buffer fills up.
	if _, err := bus.Subscribe(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			bus.PublishBlind(contractx.Event{Action: "assure_updated"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("a stalled subscriber must not block publishers")
	}
}

func TestNoReplayForLateSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	defer bus.Close()

	bus.PublishBlind(contractx.Event{Action: "document_generated"})
	// Delivery is detached; let it complete before the late subscription.
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case msg := <-msgs:
		t.Fatalf("late subscriber must not see past events, got: %s", msg.Payload)
	case <-time.After(200 * time.Millisecond):
	}
}
