package host

import (
	"context"
	"fmt"
	"sync"
)

// Hooks is the set of lifecycle callbacks a plugin can subscribe to. Nil fields are skipped.
type Hooks struct {
	// OnBeforeDownload runs before the download starts. Returning an error aborts the download.
	OnBeforeDownload func(ctx context.Context, event *PreDownloadEvent) error
	OnAfterDownload  func(ctx context.Context, event *PostDownloadEvent)
}

// Dispatcher runs hooks in the order they were registered.
type Dispatcher struct {
	mu    sync.RWMutex
	hooks []Hooks
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) Register(hooks Hooks) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, hooks)
}

func (d *Dispatcher) registered() []Hooks {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Hooks(nil), d.hooks...)
}

func (d *Dispatcher) BeforeDownload(ctx context.Context, event *PreDownloadEvent) error {
	for i, h := range d.registered() {
		if h.OnBeforeDownload == nil {
			continue
		}
		if err := h.OnBeforeDownload(ctx, event); err != nil {
			return fmt.Errorf("before-download hook %d: %w", i, err)
		}
	}
	return nil
}

func (d *Dispatcher) AfterDownload(ctx context.Context, event *PostDownloadEvent) {
	for _, h := range d.registered() {
		if h.OnAfterDownload != nil {
			h.OnAfterDownload(ctx, event)
		}
	}
}
