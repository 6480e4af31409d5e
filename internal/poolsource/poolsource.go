// Package poolsource implements the pool-discovery adapters (C2): each
// adapter watches one upstream (Raydium, Pump.fun, Jupiter, ...) for newly
// created pools and forwards a deduplicated PoolEvent stream to every
// registered subscriber.
package poolsource

import (
	"container/list"
	"context"
	"sync"
	"time"

	poolsentinel "github.com/nova-labs/poolsentinel"
)

// Adapter is the common shape every pool-source implementation satisfies.
type Adapter interface {
	Start(ctx context.Context) error
	Stop()
	Subscribe(handler func(poolsentinel.PoolEvent))
}

const dedupCapacity = 2048

// dedupSet is a small bounded recent-emit set: insertion order is tracked
// with a list so the oldest entry is evicted once capacity is exceeded.
// Independent of the analysis queue's own dedup set (C4); this one exists
// purely to absorb duplicate notifications from a single upstream source.
type dedupSet struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	index    map[string]*list.Element
}

func newDedupSet(capacity int) *dedupSet {
	return &dedupSet{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element),
	}
}

// seen returns true (and records nothing) if key was already seen;
// otherwise it records key and returns false.
func (d *dedupSet) seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.index[key]; ok {
		return true
	}
	elem := d.order.PushBack(key)
	d.index[key] = elem
	if d.order.Len() > d.capacity {
		oldest := d.order.Front()
		if oldest != nil {
			d.order.Remove(oldest)
			delete(d.index, oldest.Value.(string))
		}
	}
	return false
}

// subscribers fan out one PoolEvent to every registered handler, guarded
// by a mutex since Start/Subscribe may race from different goroutines.
type subscribers struct {
	mu       sync.Mutex
	handlers []func(poolsentinel.PoolEvent)
}

func (s *subscribers) add(h func(poolsentinel.PoolEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

func (s *subscribers) emit(ev poolsentinel.PoolEvent) {
	s.mu.Lock()
	handlers := make([]func(poolsentinel.PoolEvent), len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

const (
	maxReconnectAttempts = 10
	reconnectInterval    = 2 * time.Second
)
