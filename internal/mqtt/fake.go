package mqtt

import (
	"context"
	"sync"

	"github.com/huerizon/skysyncd/internal/color"
)

// FakeSubscriber is an in-process Subscriber for tests. Readings are
// injected with Emit.
type FakeSubscriber struct {
	mu        sync.Mutex
	handler   ReadingHandler
	connected bool
}

// NewFakeSubscriber creates a disconnected fake.
func NewFakeSubscriber() *FakeSubscriber {
	return &FakeSubscriber{}
}

func (f *FakeSubscriber) Connect(_ context.Context, handler ReadingHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
	f.connected = true
	return nil
}

func (f *FakeSubscriber) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.handler = nil
}

// Emit delivers a reading to the registered handler, if connected.
func (f *FakeSubscriber) Emit(r color.Reading) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	if handler != nil {
		handler(r)
	}
}

// Connected reports whether Connect has been called.
func (f *FakeSubscriber) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}
