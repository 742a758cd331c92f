package hue

import (
	"context"
	"sync"

	"github.com/huerizon/skysyncd/internal/engine"
)

// FakeApplier records applied commands for tests.
type FakeApplier struct {
	mu       sync.Mutex
	commands []engine.Command
	err      error
}

// NewFakeApplier creates an applier that accepts every command.
func NewFakeApplier() *FakeApplier {
	return &FakeApplier{}
}

// Fail makes every subsequent Apply return err.
func (f *FakeApplier) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *FakeApplier) Apply(_ context.Context, cmd engine.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.commands = append(f.commands, cmd)
	return nil
}

// Commands returns a copy of everything applied so far.
func (f *FakeApplier) Commands() []engine.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.Command(nil), f.commands...)
}
