package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestPublish_InvokesAllHandlersDespiteErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))
	var seen []string

	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		seen = append(seen, "first")
		return errors.New("smtp down")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		seen = append(seen, "second")
		return nil
	})
	d.Subscribe(EventTicketStatusChanged, func(context.Context, Event) error {
		seen = append(seen, "other")
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventTicketCreated, 1, domain.Principal{UserID: 2, Role: domain.RoleClient}, time.Now(), nil))

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, seen)
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
}

func TestNewEvent(t *testing.T) {
	at := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	a := NewEvent(EventTicketStatusChanged, 9, domain.Principal{UserID: 4, Role: domain.RoleTechnician}, at, TicketStatusChangedPayload{})
	b := NewEvent(EventTicketStatusChanged, 9, domain.Principal{UserID: 4, Role: domain.RoleTechnician}, at, nil)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, Actor{UserID: 4, Role: domain.RoleTechnician}, a.Actor)
	assert.Equal(t, int64(9), a.TicketID)
	assert.Equal(t, at, a.Timestamp)
}
