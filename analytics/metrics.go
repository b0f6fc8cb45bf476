package analytics

import (
	"context"

	"gamegen/core"
	"gamegen/engine"
)

// BridgeHook bridges an event source to multiple hooks.
type BridgeHook struct{ hooks []Hook }

func NewBridge(hooks ...Hook) *BridgeHook { return &BridgeHook{hooks: hooks} }

func (b *BridgeHook) OnEvent(e core.Event) {
	for _, h := range b.hooks {
		h.OnEvent(e)
	}
}

// Attach feeds every bus event to the hooks. The returned func detaches them.
func Attach(bus *engine.EventBus, hooks ...Hook) func() {
	bridge := NewBridge(hooks...)
	return bus.SubscribeAll(func(_ context.Context, e core.Event) { bridge.OnEvent(e) })
}
