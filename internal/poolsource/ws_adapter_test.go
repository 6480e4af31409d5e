package poolsource

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	poolsentinel "github.com/nova-labs/poolsentinel"
)

func TestWSAdapterSubscribeReceivesParsedEvents(t *testing.T) {
	parse := func(raw []byte) (poolsentinel.PoolEvent, bool) {
		return poolsentinel.PoolEvent{
			PoolAddress:  string(raw),
			TokenMint:    "MintA",
			Source:       poolsentinel.SourceRaydium,
			DiscoveredAt: time.Now(),
		}, true
	}
	a := NewWSAdapter(poolsentinel.SourceRaydium, "wss://example.invalid", parse, zerolog.Nop())

	var received []poolsentinel.PoolEvent
	a.Subscribe(func(ev poolsentinel.PoolEvent) { received = append(received, ev) })

	// Exercise the dedup+validate path directly without a live socket,
	// the same pipeline connectAndStream would drive per frame.
	ev, ok := a.parse([]byte("Pool1"))
	assert.True(t, ok)
	if !a.dedup.seen(ev.PoolAddress) {
		assert.NoError(t, ev.Validate())
		a.subs.emit(ev)
	}
	// second identical frame is deduplicated
	ev2, _ := a.parse([]byte("Pool1"))
	if !a.dedup.seen(ev2.PoolAddress) {
		a.subs.emit(ev2)
	}

	assert.Len(t, received, 1)
}
