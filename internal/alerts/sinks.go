package alerts

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/nova-labs/poolsentinel/internal/httpclient"
	"github.com/nova-labs/poolsentinel/internal/persistence"
)

// ChatSink delivers an alert through the Telegram Bot API's sendMessage
// endpoint, routed through the resilient HTTP client so it inherits
// rate-limiting, retries, and circuit-breaking.
type ChatSink struct {
	http     *httpclient.Client
	botToken string
	chatID   string
}

// NewChatSink builds a ChatSink posting to the Telegram bot identified by
// botToken, addressed to chatID.
func NewChatSink(http *httpclient.Client, botToken, chatID string) *ChatSink {
	return &ChatSink{http: http, botToken: botToken, chatID: chatID}
}

func (s *ChatSink) Name() string { return "chat" }

func (s *ChatSink) Send(ctx context.Context, alert Alert) Result {
	query := url.Values{
		"chat_id": {s.chatID},
		"text":    {formatAlertText(alert)},
	}
	path := fmt.Sprintf("/bot%s/sendMessage?%s", s.botToken, query.Encode())

	_, err := httpclient.Get(ctx, s.http, path, httpclient.GetOptions[map[string]any]{
		Validator: httpclient.HasFields("ok"),
	})
	if err != nil {
		return Result{SinkName: s.Name(), Delivered: false, Error: err.Error()}
	}
	return Result{SinkName: s.Name(), Delivered: true}
}

func formatAlertText(alert Alert) string {
	return fmt.Sprintf("[%s] %s score=%d level=%s", alert.Kind, alert.TokenMint, alert.Verdict.Score, alert.Verdict.Level)
}

// DashboardSink appends delivered alerts to a bounded in-memory ring
// buffer that an out-of-scope dashboard HTTP server can read from.
type DashboardSink struct {
	mu       sync.Mutex
	capacity int
	recent   []Alert
}

// NewDashboardSink builds a DashboardSink retaining up to capacity recent
// alerts.
func NewDashboardSink(capacity int) *DashboardSink {
	return &DashboardSink{capacity: capacity}
}

func (s *DashboardSink) Name() string { return "dashboard" }

func (s *DashboardSink) Send(ctx context.Context, alert Alert) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = append(s.recent, alert)
	if len(s.recent) > s.capacity {
		s.recent = s.recent[len(s.recent)-s.capacity:]
	}
	return Result{SinkName: s.Name(), Delivered: true}
}

// Recent returns a snapshot of the most recently appended alerts.
func (s *DashboardSink) Recent() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Alert, len(s.recent))
	copy(out, s.recent)
	return out
}

// PersistenceSink writes every dispatched alert to the Store, so alert
// history survives restarts and backs WasAlertSent lookups.
type PersistenceSink struct {
	store *persistence.Store
}

// NewPersistenceSink builds a PersistenceSink over store.
func NewPersistenceSink(store *persistence.Store) *PersistenceSink {
	return &PersistenceSink{store: store}
}

func (s *PersistenceSink) Name() string { return "persistence" }

func (s *PersistenceSink) Send(ctx context.Context, alert Alert) Result {
	if err := s.store.SaveAlert(ctx, alert.ChatID, alert.TokenMint, alert.Kind, true, ""); err != nil {
		return Result{SinkName: s.Name(), Delivered: false, Error: err.Error()}
	}
	return Result{SinkName: s.Name(), Delivered: true}
}
