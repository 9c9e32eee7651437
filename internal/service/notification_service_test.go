package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

func TestNotificationService_HandlesTicketEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher(logger)
	NewNotificationService(dispatcher, logger, config.NotificationConfig{
		EmailFrom:  "noreply@example.com",
		WebhookURL: "https://hooks.example.com/helpdesk",
	}).RegisterHandlers()
	ctx := context.Background()

	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventTicketCreated, 7, clientPrincipal, time.Now(), events.TicketCreatedPayload{Title: "t"})))
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventTicketStatusChanged, 7, technicianPrincipal, time.Now(), events.TicketStatusChangedPayload{
		OldStatus: domain.TicketStatusOpen,
		NewStatus: domain.TicketStatusInProgress,
	})))

	assert.Equal(t, 1, logs.FilterMessage("ticket created notification").Len())
	assert.Equal(t, 1, logs.FilterMessage("email notification stub").Len())
	assert.Equal(t, 2, logs.FilterMessage("webhook notification stub").Len())

	status := logs.FilterMessage("ticket status notification").All()
	require.Len(t, status, 1)
	assert.Equal(t, "IN_PROGRESS", status[0].ContextMap()["to"])
}

func TestNotificationService_StubsDisabledWithoutConfig(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher(logger)
	NewNotificationService(dispatcher, logger, config.NotificationConfig{}).RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.NewEvent(events.EventTicketCreated, 1, clientPrincipal, time.Now(), nil)))

	assert.Equal(t, 0, logs.FilterMessage("email notification stub").Len())
	assert.Equal(t, 0, logs.FilterMessage("webhook notification stub").Len())
}
