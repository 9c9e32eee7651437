package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
)

// NotificationWorker decouples event delivery from the request path: Publish
// enqueues and a single goroutine hands events to the wrapped dispatcher.
type NotificationWorker struct {
	inner  events.Dispatcher
	queue  chan queued
	logger *zap.Logger

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

type queued struct {
	ctx   context.Context
	event events.Event
}

// NewNotificationWorker wraps inner with a queue of the given size.
func NewNotificationWorker(inner events.Dispatcher, queueSize int, logger *zap.Logger) *NotificationWorker {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &NotificationWorker{
		inner:  inner,
		queue:  make(chan queued, queueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start launches the delivery loop.
func (w *NotificationWorker) Start() {
	go func() {
		defer close(w.done)
		for item := range w.queue {
			_ = w.inner.Publish(item.ctx, item.event)
		}
	}()
}

// Publish enqueues event. When the queue is full the event is dropped and
// logged; after Stop events are dropped.
func (w *NotificationWorker) Publish(ctx context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		w.logger.Warn("notification worker stopped; dropping event", zap.String("event_id", event.ID))
		return nil
	}
	select {
	case w.queue <- queued{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		w.logger.Warn("notification queue full; dropping event",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID))
	}
	return nil
}

// Subscribe registers handler on the wrapped dispatcher.
func (w *NotificationWorker) Subscribe(eventType events.EventType, handler events.EventHandler) {
	w.inner.Subscribe(eventType, handler)
}

// Stop closes the queue and waits for queued events to drain or ctx to end.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
