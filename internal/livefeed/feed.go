package livefeed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/opsboard/backend/internal/core/events"
)

// Notice is one dashboard-facing update derived from a mutation event.
type Notice struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurredAt"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Feed keeps the most recent mutation notices in memory so dashboard
// clients can poll for live updates without touching the ledger. Oldest
// notices are evicted once capacity is reached.
type Feed struct {
	mu       sync.RWMutex
	notices  []Notice
	capacity int
	logger   *slog.Logger
}

const DefaultCapacity = 100

func NewFeed(capacity int, logger *slog.Logger) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		capacity: capacity,
		logger:   logger,
	}
}

// HandleEvent records a mutation event as a notice. Registered for every
// event type the services publish; it never fails.
func (f *Feed) HandleEvent(_ context.Context, event events.Event) error {
	data, _ := event.Payload().(map[string]interface{})

	f.mu.Lock()
	defer f.mu.Unlock()

	f.notices = append(f.notices, Notice{
		ID:         event.EventID(),
		Type:       event.EventType(),
		OccurredAt: event.OccurredAt(),
		Data:       data,
	})
	if len(f.notices) > f.capacity {
		f.notices = f.notices[len(f.notices)-f.capacity:]
	}

	f.logger.Debug("live feed notice recorded",
		"event_type", event.EventType(),
		"event_id", event.EventID())
	return nil
}

// Recent returns up to limit notices, newest first. limit <= 0 means all.
func (f *Feed) Recent(limit int) []Notice {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := len(f.notices)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Notice, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, f.notices[i])
	}
	return out
}

func (f *Feed) RegisterEventHandlers(eventBus *events.EventBus) {
	types := []string{
		events.EventTypeActivityRecorded,
		events.EventTypeUserUpdated,
		events.EventTypeEmployeeUpdated,
		events.EventTypeBackupCompleted,
	}
	for _, eventType := range types {
		eventBus.Subscribe(eventType, f.HandleEvent)
	}

	f.logger.Info("live feed event handlers registered", "handlers", types)
}
