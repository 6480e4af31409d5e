package poolsource

import (
	"testing"

	"github.com/stretchr/testify/assert"

	poolsentinel "github.com/nova-labs/poolsentinel"
)

func TestDedupSetRejectsRepeats(t *testing.T) {
	d := newDedupSet(4)
	assert.False(t, d.seen("a"))
	assert.True(t, d.seen("a"))
	assert.False(t, d.seen("b"))
}

func TestDedupSetEvictsOldestBeyondCapacity(t *testing.T) {
	d := newDedupSet(2)
	d.seen("a")
	d.seen("b")
	d.seen("c") // evicts "a"

	assert.True(t, d.seen("b"))
	assert.True(t, d.seen("c"))
	assert.False(t, d.seen("a"), "a should have been evicted and is seen as new again")
}

func TestSubscribersEmitsToAllHandlers(t *testing.T) {
	var firstSeen, secondSeen poolsentinel.PoolEvent
	var s subscribers
	s.add(func(ev poolsentinel.PoolEvent) { firstSeen = ev })
	s.add(func(ev poolsentinel.PoolEvent) { secondSeen = ev })

	s.emit(poolsentinel.PoolEvent{PoolAddress: "Pool1"})

	assert.Equal(t, "Pool1", firstSeen.PoolAddress)
	assert.Equal(t, "Pool1", secondSeen.PoolAddress)
}
