package domain

import "time"

// TicketHistory is an immutable audit entry for a ticket status change.
// FromStatus is nil for the entry written when the ticket is opened.
type TicketHistory struct {
	ID         int64
	TicketID   int64
	ChangedBy  int64
	FromStatus *TicketStatus
	ToStatus   TicketStatus
	CreatedAt  time.Time
}
