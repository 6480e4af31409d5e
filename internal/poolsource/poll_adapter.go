package poolsource

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	poolsentinel "github.com/nova-labs/poolsentinel"
	"github.com/nova-labs/poolsentinel/internal/httpclient"
)

// FetchFunc retrieves the current snapshot of newly listed pools from one
// REST polling source.
type FetchFunc func(ctx context.Context, http *httpclient.Client) ([]poolsentinel.PoolEvent, error)

// PollAdapter discovers pools by polling a REST endpoint on a fixed
// interval through the resilient HTTP client (C1), rather than holding an
// open stream.
type PollAdapter struct {
	source   poolsentinel.PoolSource
	http     *httpclient.Client
	fetch    FetchFunc
	interval time.Duration
	log      zerolog.Logger
	dedup    *dedupSet
	subs     subscribers

	cancel context.CancelFunc
}

// NewPollAdapter builds a PollAdapter for source, calling fetch every
// interval through http.
func NewPollAdapter(source poolsentinel.PoolSource, http *httpclient.Client, fetch FetchFunc, interval time.Duration, logger zerolog.Logger) *PollAdapter {
	return &PollAdapter{
		source:   source,
		http:     http,
		fetch:    fetch,
		interval: interval,
		log:      logger,
		dedup:    newDedupSet(dedupCapacity),
	}
}

// Subscribe registers handler to receive every deduplicated PoolEvent this
// adapter discovers.
func (a *PollAdapter) Subscribe(handler func(poolsentinel.PoolEvent)) {
	a.subs.add(handler)
}

// Start begins the polling ticker loop in the background.
func (a *PollAdapter) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	go a.pollLoop(runCtx)
	return nil
}

// Stop halts the polling loop.
func (a *PollAdapter) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *PollAdapter) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.pollOnce(ctx)
	for {
		select {
		case <-ticker.C:
			a.pollOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *PollAdapter) pollOnce(ctx context.Context) {
	events, err := a.fetch(ctx, a.http)
	if err != nil {
		a.log.Warn().Err(err).Str("source", string(a.source)).Msg("pool-source poll failed")
		return
	}

	for _, ev := range events {
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
