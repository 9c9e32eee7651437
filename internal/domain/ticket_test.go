package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	statuses := []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed}
	legal := map[[2]TicketStatus]bool{
		{TicketStatusOpen, TicketStatusInProgress}:     true,
		{TicketStatusInProgress, TicketStatusResolved}: true,
		{TicketStatusResolved, TicketStatusClosed}:     true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := legal[[2]TicketStatus{from, to}]
			assert.Equalf(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_UnknownStatus(t *testing.T) {
	assert.False(t, CanTransition("PENDING", TicketStatusInProgress))
	assert.False(t, CanTransition(TicketStatusOpen, "PENDING"))
}

func TestTicketEnums(t *testing.T) {
	assert.True(t, TicketStatusResolved.Valid())
	assert.False(t, TicketStatus("open").Valid())
	assert.True(t, TicketPriorityHigh.Valid())
	assert.False(t, TicketPriority("URGENT").Valid())
	assert.True(t, RoleTechnician.Valid())
	assert.False(t, Role("STAFF").Valid())
}
