package alerts

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	poolsentinel "github.com/nova-labs/poolsentinel"
)

type fakeSink struct {
	name      string
	delivered bool
	calls     int
}

func (f *fakeSink) Name() string { return f.name }
func (f *fakeSink) Send(ctx context.Context, alert Alert) Result {
	f.calls++
	return Result{SinkName: f.name, Delivered: f.delivered}
}

type fakeCooldown struct {
	allow  bool
	marked bool
}

func (f *fakeCooldown) CanSendAlert(chatID, tokenMint string) bool { return f.allow }
func (f *fakeCooldown) MarkAlertSent(chatID, tokenMint string)     { f.marked = true }

func TestDispatchSkipsWhenCooldownBlocks(t *testing.T) {
	sink := &fakeSink{name: "primary", delivered: true}
	cooldown := &fakeCooldown{allow: false}
	d := New(cooldown, zerolog.Nop(), sink)

	results := d.Dispatch(context.Background(), Alert{ChatID: "c1", TokenMint: "MintA"})
	assert.Nil(t, results)
	assert.Equal(t, 0, sink.calls)
}

func TestDispatchSendsToAllSinksAndMarksCooldown(t *testing.T) {
	primary := &fakeSink{name: "primary", delivered: true}
	secondary := &fakeSink{name: "secondary", delivered: false}
	cooldown := &fakeCooldown{allow: true}
	d := New(cooldown, zerolog.Nop(), primary, secondary)

	results := d.Dispatch(context.Background(), Alert{ChatID: "c1", TokenMint: "MintA", Verdict: poolsentinel.RiskVerdict{Score: 80}})
	assert.Len(t, results, 2)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
	assert.True(t, cooldown.marked, "cooldown must be marked once the primary sink delivers")
}

func TestDispatchDoesNotMarkCooldownWhenPrimaryFails(t *testing.T) {
	primary := &fakeSink{name: "primary", delivered: false}
	cooldown := &fakeCooldown{allow: true}
	d := New(cooldown, zerolog.Nop(), primary)

	d.Dispatch(context.Background(), Alert{ChatID: "c1", TokenMint: "MintA"})
	assert.False(t, cooldown.marked)
}

func TestDashboardSinkBoundsRecentAlerts(t *testing.T) {
	sink := NewDashboardSink(2)
	sink.Send(context.Background(), Alert{TokenMint: "MintA"})
	sink.Send(context.Background(), Alert{TokenMint: "MintB"})
	sink.Send(context.Background(), Alert{TokenMint: "MintC"})

	recent := sink.Recent()
	assert.Len(t, recent, 2)
	assert.Equal(t, "MintB", recent[0].TokenMint)
	assert.Equal(t, "MintC", recent[1].TokenMint)
}
