package chainrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// logSubscriber manages one reconnecting WebSocket connection shared by
// every OnLogs registration, using the same reconnect-with-backoff shape
// the pack's Solana streaming SDK uses: a bounded-attempt loop that resets
// its counter whenever a notification is decoded or a pong arrives. It
// sends no logsSubscribe request and does not filter by address: every
// notification read from the socket is passed to every registered callback.
type logSubscriber struct {
	wsURL string
	log   zerolog.Logger

	mu            sync.Mutex
	conn          *websocket.Conn
	callbacks     map[string]func(Log)
	nextID        int64
	started       bool
	madeProgress  atomic.Bool
}

func newLogSubscriber(wsURL string, logger zerolog.Logger) *logSubscriber {
	return &logSubscriber{
		wsURL:     wsURL,
		log:       logger,
		callbacks: make(map[string]func(Log)),
	}
}

func (s *logSubscriber) subscribe(ctx context.Context, addr string, cb func(Log)) (string, error) {
	s.mu.Lock()
	id := fmt.Sprintf("sub-%d", atomic.AddInt64(&s.nextID, 1))
	s.callbacks[id] = cb
	started := s.started
	s.started = true
	s.mu.Unlock()

	if !started {
		go s.streamLoop(ctx)
	}
	return id, nil
}

func (s *logSubscriber) unsubscribe(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.callbacks, id)
	return nil
}

// streamLoop owns the connect/read/reconnect cycle for the lifetime of ctx.
func (s *logSubscriber) streamLoop(ctx context.Context) {
	const maxAttempts = 10
	attempt := 0

	for {
		if ctx.Err() != nil {
			return
		}

		s.madeProgress.Store(false)
		if err := s.connectAndStream(ctx); err != nil {
			s.log.Warn().Err(err).Int("attempt", attempt).Msg("log subscription stream ended")
		}

		if s.madeProgress.Load() {
			attempt = 0
		} else {
			attempt++
		}
		if attempt >= maxAttempts {
			s.log.Error().Msg("log subscription giving up after repeated failed reconnects")
			return
		}

		wait := time.Duration(attempt+1) * time.Second
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}
}

func (s *logSubscriber) connectAndStream(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("chainrpc: dial ws: %w", err)
	}
	defer conn.Close()

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	conn.SetPongHandler(func(string) error {
		s.madeProgress.Store(true)
		return nil
	})

	return s.handleStream(ctx, conn)
}

func (s *logSubscriber) handleStream(ctx context.Context, conn *websocket.Conn) error {
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
				return fmt.Errorf("chainrpc: read ws message: %w", err)
			}
		}

		var notif struct {
			Params struct {
				Result struct {
					Value struct {
						Signature string   `json:"signature"`
						Logs      []string `json:"logs"`
					} `json:"value"`
				} `json:"result"`
			} `json:"params"`
		}
		if err := json.Unmarshal(data, &notif); err != nil {
			continue
		}

		s.madeProgress.Store(true)
		log := Log{
			Signature: notif.Params.Result.Value.Signature,
			Logs:      notif.Params.Result.Value.Logs,
		}

		s.mu.Lock()
		callbacks := make([]func(Log), 0, len(s.callbacks))
		for _, cb := range s.callbacks {
			callbacks = append(callbacks, cb)
		}
		s.mu.Unlock()

		for _, cb := range callbacks {
			cb(log)
		}
	}
}
