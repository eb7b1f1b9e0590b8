// Package refresh is the broadcast that tells open views their data changed.
//
// Writers publish the scope of the user whose data changed; every subscriber
// receives it on its own goroutine. There is no ordering between subscribers
// and no acknowledgement.
package refresh

import (
	"context"
	"slices"
	"sync"

	"gitlab.com/yelinaung/spennies-bot/internal/logger"
)

// Handler reacts to a change in scope's data.
type Handler func(ctx context.Context, scope string)

// Bus fans refresh events out to named subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]subscription
	seq  uint64
	wg   sync.WaitGroup
}

type subscription struct {
	id uint64
	fn Handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string]subscription)}
}

// Subscribe registers fn under name, replacing any handler with the same
// name. The returned func removes it.
func (b *Bus) Subscribe(name string, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.seq++
	id := b.seq
	b.subs[name] = subscription{id: id, fn: fn}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			// Only remove our own registration, not a later replacement.
			if cur, ok := b.subs[name]; ok && cur.id == id {
				delete(b.subs, name)
			}
		})
	}
}

// Publish notifies every subscriber that scope changed. It does not wait
// for the handlers; they run detached from ctx's cancellation.
func (b *Bus) Publish(ctx context.Context, scope string) {
	b.mu.RLock()
	handlers := make(map[string]Handler, len(b.subs))
	for name, sub := range b.subs {
		handlers[name] = sub.fn
	}
	b.mu.RUnlock()

	ctx = context.WithoutCancel(ctx)
	for name, fn := range handlers {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Log.Error().Interface("panic", r).Str("subscriber", name).Msg("Refresh subscriber panicked")
				}
			}()
			fn(ctx, scope)
		}()
	}

	logger.Log.Debug().Int("subscribers", len(handlers)).Msg("Published refresh")
}

// Subscribers returns the registered names in sorted order.
func (b *Bus) Subscribers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.subs))
	for name := range b.subs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Wait blocks until every handler started so far has returned.
func (b *Bus) Wait() {
	b.wg.Wait()
}
