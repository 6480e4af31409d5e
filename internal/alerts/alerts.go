// Package alerts implements the alert fan-out stage (C8): a Dispatcher
// that sends one alert through every configured Sink, isolating each
// sink's failure from the others, and records delivery once the primary
// sink succeeds.
package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	poolsentinel "github.com/nova-labs/poolsentinel"
)

// Alert is one outbound notification.
type Alert struct {
	ChatID    string
	TokenMint string
	Kind      string
	Verdict   poolsentinel.RiskVerdict
	Facts     poolsentinel.EnrichmentFacts
	CreatedAt time.Time
}

// Result is one sink's outcome for one Alert.
type Result struct {
	SinkName  string
	Delivered bool
	Error     string
}

// Sink is one outbound delivery channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, alert Alert) Result
}

// CooldownTracker is the subset of internal/dedup.Service the dispatcher
// needs, kept as a small interface so tests can fake it.
type CooldownTracker interface {
	CanSendAlert(chatID, tokenMint string) bool
	MarkAlertSent(chatID, tokenMint string)
}

// Dispatcher fans an Alert out to every registered Sink.
type Dispatcher struct {
	sinks    []Sink
	cooldown CooldownTracker
	log      zerolog.Logger
}

// New builds a Dispatcher over sinks, consulting cooldown before sending
// and marking it sent once the first (primary) sink succeeds.
func New(cooldown CooldownTracker, logger zerolog.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, cooldown: cooldown, log: logger}
}

// Dispatch sends alert through every sink concurrently. It returns nil
// without sending anything if the cooldown tracker says not to.
func (d *Dispatcher) Dispatch(ctx context.Context, alert Alert) []Result {
	if !d.cooldown.CanSendAlert(alert.ChatID, alert.TokenMint) {
		return nil
	}

	results := make([]Result, len(d.sinks))
	var wg sync.WaitGroup
	for i, sink := range d.sinks {
		wg.Add(1)
		go func(i int, sink Sink) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = Result{SinkName: sink.Name(), Delivered: false, Error: "sink panicked"}
				}
			}()
			results[i] = sink.Send(ctx, alert)
		}(i, sink)
	}
	wg.Wait()

	if len(results) > 0 && results[0].Delivered {
		d.cooldown.MarkAlertSent(alert.ChatID, alert.TokenMint)
	}

	for _, r := range results {
		if !r.Delivered {
			d.log.Warn().Str("sink", r.SinkName).Str("mint", alert.TokenMint).Str("error", r.Error).Msg("alert sink failed")
		}
	}
	return results
}
