// Package notify fans guard notices out to subscribers such as toast
// renderers or the CLI.
package notify

import (
	"context"
	"strconv"
	"sync"

	evbus "github.com/asaskevich/EventBus"

	"saha.org/internal/guard"
	"saha.org/internal/obs"
)

const topicPrefix = "guard.notice."

// Bus delivers every published notice to all active subscribers.
// It implements guard.Notifier.
//
// Each subscriber owns its own topic on the underlying event bus. The
// event bus matches handlers by code pointer on unsubscribe, so handlers
// built from one closure cannot share a topic.
type Bus struct {
	bus    evbus.Bus
	mu     sync.RWMutex
	subs   map[int]func(guard.Notice)
	next   int
	buffer int
}

// New returns an empty bus whose subscriber channels hold buffer notices.
func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{bus: evbus.New(), subs: make(map[int]func(guard.Notice)), buffer: buffer}
}

func topic(id int) string { return topicPrefix + strconv.Itoa(id) }

// Subscribe registers a subscriber. The channel is closed when ctx ends.
func (b *Bus) Subscribe(ctx context.Context) <-chan guard.Notice {
	ch := make(chan guard.Notice, b.buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	deliver := func(n guard.Notice) {
		select {
		case ch <- n:
		default:
			obs.Warn("notice_dropped", map[string]any{"subscriber": id, "level": string(n.Level)})
		}
	}
	if err := b.bus.Subscribe(topic(id), deliver); err != nil {
		b.mu.Unlock()
		obs.Error("notice_subscribe_failed", map[string]any{"subscriber": id, "error": err.Error()})
		close(ch)
		return ch
	}
	b.subs[id] = deliver
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		_ = b.bus.Unsubscribe(topic(id), deliver)
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

// Notify publishes n. A subscriber whose buffer is full misses it.
func (b *Bus) Notify(n guard.Notice) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id := range b.subs {
		b.bus.Publish(topic(id), n)
	}
}

// Subscribers reports the number of active subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Drain returns the notices already buffered in ch without blocking.
func Drain(ch <-chan guard.Notice) []guard.Notice {
	var out []guard.Notice
	for {
		select {
		case n, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, n)
		default:
			return out
		}
	}
}
