package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

func TestWorker_DeliversAndDrainsOnStop(t *testing.T) {
	w := NewNotificationWorker(events.NewInMemoryDispatcher(zap.NewNop()), 10, zap.NewNop())
	var (
		mu  sync.Mutex
		ids []int64
	)
	w.Subscribe(events.EventTicketCreated, func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		ids = append(ids, e.TicketID)
		return nil
	})
	w.Start()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, w.Publish(context.Background(), events.NewEvent(events.EventTicketCreated, i, domain.Principal{}, time.Now(), nil)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestWorker_PublishAfterStopIsDropped(t *testing.T) {
	w := NewNotificationWorker(events.NewInMemoryDispatcher(zap.NewNop()), 1, zap.NewNop())
	w.Start()
	require.NoError(t, w.Stop(context.Background()))

	assert.NoError(t, w.Publish(context.Background(), events.Event{ID: "late"}))
	assert.NoError(t, w.Stop(context.Background()), "stop is idempotent")
}

func TestWorker_FullQueueDrops(t *testing.T) {
	w := NewNotificationWorker(events.NewInMemoryDispatcher(zap.NewNop()), 1, zap.NewNop())

	require.NoError(t, w.Publish(context.Background(), events.Event{ID: "a"}))
	require.NoError(t, w.Publish(context.Background(), events.Event{ID: "b"}))

	assert.Len(t, w.queue, 1)
}
