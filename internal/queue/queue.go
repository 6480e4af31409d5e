// Package queue implements the analysis queue (C4): a bounded FIFO with
// O(1) dedup, fed by pool-source adapters and drained by a bounded-parallel
// pool of analysis workers.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	poolsentinel "github.com/nova-labs/poolsentinel"
)

// Handler analyzes one PoolEvent. Workers call it with the concurrency
// semaphore already acquired; Handler is responsible for its own timeout.
type Handler func(ctx context.Context, event poolsentinel.PoolEvent)

// CooldownChecker is the subset of internal/dedup.Service the queue
// consults before handing a pulled item to a worker, so a chat already
// over its alert budget never pays for enrichment/classification that
// would just be dropped at dispatch.
type CooldownChecker interface {
	CanSendAlert(chatID, tokenMint string) bool
	CanSendAnyAlert(chatID string) bool
}

const (
	// overflowEvictionFraction of capacity is evicted, as a batch, each
	// time an enqueue would otherwise exceed capacity.
	overflowEvictionFraction = 0.10
	// warningThresholdFraction of capacity is the occupancy level that
	// triggers the "queue nearly full" warning; it resets once occupancy
	// drops back below half of that threshold.
	warningThresholdFraction = 0.90
	// rateLimitWait is how long the dispatcher backs off between batches
	// when the chat's hourly alert budget is exhausted.
	rateLimitWait = 5 * time.Second
)

// Queue is a bounded FIFO of PoolEvents with a parallel dedup set, drained
// by Concurrency workers.
type Queue struct {
	capacity    int
	concurrency int
	handler     Handler
	cooldown    CooldownChecker
	chatID      string
	log         zerolog.Logger

	evictionCount    int
	warningThreshold int

	mu        sync.Mutex
	items     []poolsentinel.PoolEvent
	inQueue   map[string]struct{} // tokenMint -> present
	warningOn bool

	notify chan struct{}
	sem    chan struct{}

	droppedOverflow int64
}

// New builds a Queue bounded at capacity, dispatching to up to
// concurrency workers running handler. cooldown and chatID let the queue
// skip dispatching work for a chat that has no alert budget left; pass a
// nil cooldown to disable that check (e.g. in tests).
func New(capacity, concurrency int, handler Handler, cooldown CooldownChecker, chatID string, logger zerolog.Logger) *Queue {
	evictionCount := int(float64(capacity) * overflowEvictionFraction)
	if evictionCount < 1 {
		evictionCount = 1
	}
	warningThreshold := int(float64(capacity) * warningThresholdFraction)
	if warningThreshold < 1 {
		warningThreshold = capacity
	}

	return &Queue{
		capacity:         capacity,
		concurrency:      concurrency,
		handler:          handler,
		cooldown:         cooldown,
		chatID:           chatID,
		log:              logger,
		evictionCount:    evictionCount,
		warningThreshold: warningThreshold,
		inQueue:          make(map[string]struct{}),
		notify:           make(chan struct{}, 1),
		sem:              make(chan struct{}, concurrency),
	}
}

// Enqueue adds event to the queue unless its token is already present
// (queue-level dedup, independent of any adapter's own dedup) or the queue
// is full, in which case the oldest evictionCount non-dequeued items are
// evicted in one batch to make room. A warning is logged exactly once when
// occupancy first crosses warningThreshold, and not again until occupancy
// falls back below half of that threshold.
func (q *Queue) Enqueue(event poolsentinel.PoolEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, dup := q.inQueue[event.TokenMint]; dup {
		return false
	}

	if len(q.items) >= q.capacity {
		n := q.evictionCount
		if n > len(q.items) {
			n = len(q.items)
		}
		for _, evicted := range q.items[:n] {
			delete(q.inQueue, evicted.TokenMint)
		}
		q.items = q.items[n:]
		q.droppedOverflow += int64(n)
	}

	q.items = append(q.items, event)
	q.inQueue[event.TokenMint] = struct{}{}

	if !q.warningOn && len(q.items) >= q.warningThreshold {
		q.warningOn = true
		q.log.Warn().Int("length", len(q.items)).Int("threshold", q.warningThreshold).Msg("analysis queue nearing capacity")
	} else if q.warningOn && len(q.items) < q.warningThreshold/2 {
		q.warningOn = false
	}

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

func (q *Queue) dequeue() (poolsentinel.PoolEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return poolsentinel.PoolEvent{}, false
	}
	event := q.items[0]
	q.items = q.items[1:]
	delete(q.inQueue, event.TokenMint)
	if q.warningOn && len(q.items) < q.warningThreshold/2 {
		q.warningOn = false
	}
	return event, true
}

// Len reports how many events are currently queued (not yet dispatched).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// DroppedOverflow reports the lifetime count of events evicted due to
// queue overflow.
func (q *Queue) DroppedOverflow() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.droppedOverflow
}

// Run drains the queue until ctx is canceled, dispatching up to
// concurrency handler calls at once. Before dispatching a batch it checks
// CanSendAnyAlert for the configured chat, backing off rateLimitWait if
// the hourly budget is exhausted; each pulled item is then checked
// individually against CanSendAlert and skipped (not dispatched) if the
// token itself is still in cooldown.
func (q *Queue) Run(ctx context.Context) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		if q.cooldown != nil && !q.cooldown.CanSendAnyAlert(q.chatID) {
			select {
			case <-time.After(rateLimitWait):
				continue
			case <-ctx.Done():
				return
			}
		}

		event, ok := q.dequeue()
		if !ok {
			select {
			case <-q.notify:
				continue
			case <-ctx.Done():
				return
			}
		}

		if q.cooldown != nil && !q.cooldown.CanSendAlert(q.chatID, event.TokenMint) {
			continue
		}

		select {
		case q.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		wg.Add(1)
		go func(e poolsentinel.PoolEvent) {
			defer wg.Done()
			defer func() { <-q.sem }()
			defer func() {
				if r := recover(); r != nil {
					q.log.Error().Interface("panic", r).Str("mint", e.TokenMint).Msg("analysis worker recovered from panic")
				}
			}()
			q.handler(ctx, e)
		}(event)
	}
}
