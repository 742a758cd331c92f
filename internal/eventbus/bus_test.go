package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/huerizon/skysyncd/internal/engine"
)

func TestPublish_DeliversToSubscribers(t *testing.T) {
	b := NewWithConfig(2, 10)
	defer b.Close(context.Background())

	got := make(chan Event, 1)
	b.Subscribe(EventTypeDecision, func(ev Event) { got <- ev })

	b.Publish(Event{Type: EventTypeDecision, Decision: engine.Decision{Target: "1"}})

	select {
	case ev := <-got:
		if ev.Decision.Target != "1" {
			t.Errorf("target = %q, want 1", ev.Decision.Target)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublish_AfterCloseIsDropped(t *testing.T) {
	b := NewWithConfig(1, 1)
	b.Subscribe(EventTypeDecision, func(Event) {})

	b.Close(context.Background())
	b.Close(context.Background())

	// Must drop silently, not panic on a closed work queue.
	b.Publish(Event{Type: EventTypeDecision})
}

func TestPublish_ConcurrentWithCloseDoesNotPanic(t *testing.T) {
	b := NewWithConfig(2, 4)
	b.Subscribe(EventTypeDecision, func(Event) {})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				b.Publish(Event{Type: EventTypeDecision})
			}
		}()
	}

	b.Close(context.Background())
	wg.Wait()
}
