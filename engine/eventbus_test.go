package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"gamegen/core"
)

func TestEventBusSync(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	bus.Subscribe(core.EventScoreSubmitted, func(ctx context.Context, e core.Event) { count++ })
	bus.Publish(context.Background(), core.NewScoreSubmitted("g1", "Zoe", 500))
	bus.Publish(context.Background(), core.NewGamePublished("g1"))
	if count != 1 {
		t.Fatalf("want 1 got %d", count)
	}
}

func TestEventBusAsync(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()
	ch := make(chan struct{})
	bus.Subscribe(core.EventScoreSubmitted, func(ctx context.Context, e core.Event) { close(ch) })
	bus.Publish(context.Background(), core.NewScoreSubmitted("g1", "Zoe", 500))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	unsub := bus.SubscribeAll(func(context.Context, core.Event) { count++ })
	bus.Publish(context.Background(), core.NewGameGenerated("g1", core.DifficultyEasy, true))
	bus.Publish(context.Background(), core.NewScoreSubmitted("g1", "Zoe", 1))
	unsub()
	bus.Publish(context.Background(), core.NewScoreSubmitted("g1", "Zoe", 2))
	if count != 2 {
		t.Fatalf("want 2 got %d", count)
	}
}

func TestEventBusRecoversHandlerPanic(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	var after int32
	bus.Subscribe(core.EventScoreSubmitted, func(context.Context, core.Event) { panic("boom") })
	bus.Subscribe(core.EventScoreSubmitted, func(context.Context, core.Event) { atomic.AddInt32(&after, 1) })
	bus.Publish(context.Background(), core.NewScoreSubmitted("g1", "Zoe", 1))
	if atomic.LoadInt32(&after) != 1 {
		t.Fatal("second handler should still run")
	}
}

func TestEventBusDropsWhenFull(t *testing.T) {
	bus := NewEventBus(DispatchAsync, WithQueueSize(1), WithWorkers(1))
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	bus.Subscribe(core.EventScoreSubmitted, func(context.Context, core.Event) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
	})
	bus.Publish(context.Background(), core.NewScoreSubmitted("g", "a", 1))
	<-started
	bus.Publish(context.Background(), core.NewScoreSubmitted("g", "b", 1)) // queued
	bus.Publish(context.Background(), core.NewScoreSubmitted("g", "c", 1)) // dropped
	if bus.Dropped() != 1 {
		t.Fatalf("want 1 dropped, got %d", bus.Dropped())
	}
	close(block)
	bus.Close()
}
