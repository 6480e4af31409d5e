package poolsource

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	poolsentinel "github.com/nova-labs/poolsentinel"
	"github.com/nova-labs/poolsentinel/internal/httpclient"
)

func TestPollAdapterEmitsNewPoolsAndSkipsDuplicates(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, http *httpclient.Client) ([]poolsentinel.PoolEvent, error) {
		calls++
		return []poolsentinel.PoolEvent{
			{PoolAddress: "Pool1", TokenMint: "MintA", Source: poolsentinel.SourceJupiter, DiscoveredAt: time.Now()},
		}, nil
	}

	a := NewPollAdapter(poolsentinel.SourceJupiter, nil, fetch, time.Hour, zerolog.Nop())
	var received []poolsentinel.PoolEvent
	a.Subscribe(func(ev poolsentinel.PoolEvent) { received = append(received, ev) })

	a.pollOnce(context.Background())
	a.pollOnce(context.Background())

	assert.Equal(t, 2, calls)
	assert.Len(t, received, 1, "second poll must be deduplicated")
}

func TestPollAdapterSkipsInvalidEvents(t *testing.T) {
	fetch := func(ctx context.Context, http *httpclient.Client) ([]poolsentinel.PoolEvent, error) {
		return []poolsentinel.PoolEvent{
			{PoolAddress: "", TokenMint: "MintA", Source: poolsentinel.SourceJupiter},
		}, nil
	}
	a := NewPollAdapter(poolsentinel.SourceJupiter, nil, fetch, time.Hour, zerolog.Nop())
	var received []poolsentinel.PoolEvent
	a.Subscribe(func(ev poolsentinel.PoolEvent) { received = append(received, ev) })

	a.pollOnce(context.Background())
	assert.Empty(t, received)
}
