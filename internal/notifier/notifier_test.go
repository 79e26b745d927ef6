package notifier_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expocenter/stand-reservation/internal/model"
	"github.com/expocenter/stand-reservation/internal/notifier"
)

func TestHubFanOut(t *testing.T) {
	hub := notifier.NewHub(8)
	a, cancelA := hub.Subscribe()
	b, cancelB := hub.Subscribe()
	defer cancelA()
	defer cancelB()

	ev := notifier.Event{StandID: "A-1", OldStatus: model.StatusAvailable, NewStatus: model.StatusHeld, Version: 2}
	hub.Publish(ev)

	for name, ch := range map[string]<-chan notifier.Event{"a": a, "b": b} {
		select {
		case got := <-ch:
			assert.Equal(t, ev, got, "subscriber %s", name)
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s did not receive the event", name)
		}
	}
}

func TestHubCancel(t *testing.T) {
	hub := notifier.NewHub(8)
	ch, cancel := hub.Subscribe()
	require.Equal(t, 1, hub.Subscribers())

	cancel()
	cancel() // idempotent
	assert.Equal(t, 0, hub.Subscribers())

	_, open := <-ch
	assert.False(t, open, "cancel must close the channel")

	// Publishing after cancel must not panic or block.
	hub.Publish(notifier.Event{StandID: "A-1", Version: 2})
}

func TestBridgePublishDoesNotBlock(t *testing.T) {
	// Publish delivers locally and queues the Redis mirror; it must
	// return without touching the network even when nothing drains the
	// outbound queue and its buffer overflows.
	hub := notifier.NewHub(1)
	bridge := notifier.NewBridge(hub, nil, "stand-claim-events", "test-origin")
	ch, cancel := hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 600; i++ {
			bridge.Publish(notifier.Event{StandID: "A-1", Version: uint64(i + 2)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bridge publish blocked without a running forward loop")
	}

	got := <-ch
	assert.Equal(t, uint64(2), got.Version, "local delivery still happens first")
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := notifier.NewHub(1)
	ch, cancel := hub.Subscribe()
	defer cancel()

	// Two publishes against a full buffer of one: the second is
	// dropped, and Publish returns immediately both times. The
	// subscriber detects the version gap and resyncs.
	done := make(chan struct{})
	go func() {
		hub.Publish(notifier.Event{StandID: "A-1", Version: 2})
		hub.Publish(notifier.Event{StandID: "A-1", Version: 3})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	got := <-ch
	assert.Equal(t, uint64(2), got.Version)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected second event %+v", ev)
	default:
	}
}
