package poolsource

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	poolsentinel "github.com/nova-labs/poolsentinel"
)

// ParseFunc turns one raw WebSocket frame into a PoolEvent. A false second
// return means the frame was not a new-pool notification and should be
// skipped without counting as progress.
type ParseFunc func(raw []byte) (poolsentinel.PoolEvent, bool)

// WSAdapter discovers pools from a push WebSocket feed, reconnecting with
// a bounded-attempt backoff loop whenever the connection drops.
type WSAdapter struct {
	source  poolsentinel.PoolSource
	wsURL   string
	parse   ParseFunc
	log     zerolog.Logger
	dedup   *dedupSet
	subs    subscribers

	cancel context.CancelFunc
	done   chan struct{}

	madeProgress atomic.Bool
}

// NewWSAdapter builds a WSAdapter for source, dialing wsURL and parsing
// each frame with parse.
func NewWSAdapter(source poolsentinel.PoolSource, wsURL string, parse ParseFunc, logger zerolog.Logger) *WSAdapter {
	return &WSAdapter{
		source: source,
		wsURL:  wsURL,
		parse:  parse,
		log:    logger,
		dedup:  newDedupSet(dedupCapacity),
		done:   make(chan struct{}),
	}
}

// Subscribe registers handler to receive every deduplicated PoolEvent this
// adapter discovers.
func (a *WSAdapter) Subscribe(handler func(poolsentinel.PoolEvent)) {
	a.subs.add(handler)
}

// Start begins the reconnect-with-backoff stream loop in the background.
func (a *WSAdapter) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	go a.streamLoop(runCtx)
	return nil
}

// Stop tears down the adapter's connection and stream loop.
func (a *WSAdapter) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *WSAdapter) streamLoop(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		a.madeProgress.Store(false)
		if err := a.connectAndStream(ctx); err != nil {
			a.log.Warn().Err(err).Str("source", string(a.source)).Int("attempt", attempt).Msg("pool-source stream ended")
		}

		if a.madeProgress.Load() {
			attempt = 0
		} else {
			attempt++
		}
		if attempt >= maxReconnectAttempts {
			a.log.Error().Str("source", string(a.source)).Msg("pool-source giving up after repeated failed reconnects")
			return
		}

		select {
		case <-time.After(reconnectInterval):
		case <-ctx.Done():
			return
		}
	}
}

func (a *WSAdapter) connectAndStream(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, a.wsURL, nil)
	if err != nil {
		return fmt.Errorf("poolsource: dial %s: %w", a.source, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		conn.Close()
		close(done)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				return nil
			default:
				return fmt.Errorf("poolsource: read %s frame: %w", a.source, err)
			}
		}

		ev, ok := a.parse(data)
		if !ok {
			continue
		}
		a.madeProgress.Store(true)

		if a.dedup.seen(ev.PoolAddress) {
			continue
		}
		if err := ev.Validate(); err != nil {
			a.log.Warn().Err(err).Str("source", string(a.source)).Msg("discarding invalid pool event")
			continue
		}
		a.subs.emit(ev)
	}
}
