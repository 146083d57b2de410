package apiserver_test

import (
	"testing"
	"time"

	"github.com/jpsantos/simple86/apiserver"
)

func TestBroadcaster_SubscribeAndBroadcast(t *testing.T) {
	b := apiserver.NewBroadcaster()
	defer b.Close()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	if b.SubscriptionCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", b.SubscriptionCount())
	}

	b.Broadcast(apiserver.StateResponse{AX: 0x2a})

	select {
	case state := <-ch:
		if state.AX != 0x2a {
			t.Errorf("expected AX=0x2a, got 0x%04x", state.AX)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast event")
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := apiserver.NewBroadcaster()
	defer b.Close()

	ch := b.Subscribe()
	b.Unsubscribe(ch)

	// Give the broadcaster's goroutine a moment to process the
	// unregister before checking the count.
	time.Sleep(50 * time.Millisecond)
	if b.SubscriptionCount() != 0 {
		t.Errorf("expected 0 subscribers after unsubscribe, got %d", b.SubscriptionCount())
	}

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
}
