package bus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

const (
	// DefaultHistorySize is how many recent events are retained for replay.
	DefaultHistorySize = 500

	// DefaultChannelBuffer is the per-subscriber channel buffer. A slow
	// subscriber drops events rather than stalling publishers.
	DefaultChannelBuffer = 64
)

// SubscriptionID identifies one subscription.
type SubscriptionID string

// Subscription is one registered listener.
type Subscription struct {
	ID        SubscriptionID
	EventType EventType // "" means wildcard
	Handler   func(Event)

	ch   chan Event
	done chan struct{}
}

// Bus is the in-process workspace event bus.
type Bus struct {
	mu         sync.RWMutex
	subs       map[SubscriptionID]*Subscription
	typed      map[EventType]map[SubscriptionID]*Subscription
	wildcard   map[SubscriptionID]*Subscription
	subCounter uint64

	historyMu   sync.RWMutex
	history     []Event
	historySize int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New creates a bus with the default history size.
func New() *Bus {
	return NewWithHistory(DefaultHistorySize)
}

// NewWithHistory creates a bus retaining the given number of events.
func NewWithHistory(historySize int) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		subs:        make(map[SubscriptionID]*Subscription),
		typed:       make(map[EventType]map[SubscriptionID]*Subscription),
		wildcard:    make(map[SubscriptionID]*Subscription),
		history:     make([]Event, 0, historySize),
		historySize: historySize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Subscribe registers a handler for one event type. An empty EventType
// subscribes to everything. The handler runs on a dedicated goroutine.
func (b *Bus) Subscribe(eventType EventType, handler func(Event)) SubscriptionID {
	if b.closed.Load() {
		return ""
	}

	b.mu.Lock()
	b.subCounter++
	id := SubscriptionID(fmt.Sprintf("sub_%d", b.subCounter))
	sub := &Subscription{
		ID:        id,
		EventType: eventType,
		Handler:   handler,
		ch:        make(chan Event, DefaultChannelBuffer),
		done:      make(chan struct{}),
	}
	b.subs[id] = sub
	if eventType == "" {
		b.wildcard[id] = sub
	} else {
		if b.typed[eventType] == nil {
			b.typed[eventType] = make(map[SubscriptionID]*Subscription)
		}
		b.typed[eventType][id] = sub
	}
	b.mu.Unlock()

	b.wg.Add(1)
	go b.pump(sub)

	return id
}

func (b *Bus) pump(sub *Subscription) {
	defer b.wg.Done()
	for {
		select {
		case e := <-sub.ch:
			sub.Handler(e)
		case <-sub.done:
			return
		case <-b.ctx.Done():
			return
		}
	}
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(id SubscriptionID) error {
	if b.closed.Load() {
		return fmt.Errorf("bus is closed")
	}

	b.mu.Lock()
	sub, ok := b.subs[id]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("subscription %s not found", id)
	}
	delete(b.subs, id)
	if sub.EventType == "" {
		delete(b.wildcard, id)
	} else if m, ok := b.typed[sub.EventType]; ok {
		delete(m, id)
		if len(m) == 0 {
			delete(b.typed, sub.EventType)
		}
	}
	b.mu.Unlock()

	close(sub.done)
	return nil
}

// Publish delivers an event to every matching subscriber. Subscribers with
// a full buffer miss the event.
func (b *Bus) Publish(event Event) error {
	if b.closed.Load() {
		return fmt.Errorf("bus is closed")
	}

	b.record(event)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.wildcard {
		select {
		case sub.ch <- event:
		default:
		}
	}
	for _, sub := range b.typed[event.Type] {
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

func (b *Bus) record(event Event) {
	b.historyMu.Lock()
	defer b.historyMu.Unlock()
	b.history = append(b.history, event)
	if len(b.history) > b.historySize {
		b.history = b.history[len(b.history)-b.historySize:]
	}
}

// History returns a copy of the retained events, oldest first.
func (b *Bus) History() []Event {
	b.historyMu.RLock()
	defer b.historyMu.RUnlock()
	out := make([]Event, len(b.history))
	copy(out, b.history)
	return out
}

// Recent returns the last n events.
func (b *Bus) Recent(n int) []Event {
	b.historyMu.RLock()
	defer b.historyMu.RUnlock()
	if n > len(b.history) {
		n = len(b.history)
	}
	out := make([]Event, n)
	copy(out, b.history[len(b.history)-n:])
	return out
}

// Subscriptions returns the number of active subscriptions.
func (b *Bus) Subscriptions() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close shuts the bus down and waits for subscriber goroutines.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("bus already closed")
	}
	b.cancel()
	b.wg.Wait()

	b.mu.Lock()
	b.subs = make(map[SubscriptionID]*Subscription)
	b.typed = make(map[EventType]map[SubscriptionID]*Subscription)
	b.wildcard = make(map[SubscriptionID]*Subscription)
	b.mu.Unlock()
	return nil
}
