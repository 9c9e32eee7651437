package memstore

import (
	"context"
	"sort"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkRefs(ticket); err != nil {
		return err
	}
	ticket.ID = r.s.next("tickets")
	r.put(ctx, ticket)
	return nil
}

func (r ticketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[ticket.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := r.checkRefs(ticket); err != nil {
		return err
	}
	r.put(ctx, ticket)
	return nil
}

func (r ticketRepo) checkRefs(ticket *domain.Ticket) error {
	if _, ok := r.s.categories[ticket.CategoryID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := r.s.clients[ticket.ClientID]; !ok {
		return repository.ErrReferenced
	}
	if ticket.TechnicianID != nil {
		if _, ok := r.s.technicians[*ticket.TechnicianID]; !ok {
			return repository.ErrReferenced
		}
	}
	return nil
}

func (r ticketRepo) put(ctx context.Context, ticket *domain.Ticket) {
	stored := *ticket
	stored.TechnicianID = cloneInt64(ticket.TechnicianID)
	record(ctx, r.s.tickets, ticket.ID)
	r.s.tickets[ticket.ID] = stored
}

func (r ticketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ticket, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ticket.TechnicianID = cloneInt64(ticket.TechnicianID)
	return &ticket, nil
}

// GetByIDForUpdate relies on InTx for exclusion.
func (r ticketRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r ticketRepo) ListByClient(_ context.Context, clientID int64) ([]domain.Ticket, error) {
	return r.filter(func(t domain.Ticket) bool { return t.ClientID == clientID }), nil
}

func (r ticketRepo) ListByTechnician(_ context.Context, technicianID int64) ([]domain.Ticket, error) {
	return r.filter(func(t domain.Ticket) bool {
		return t.TechnicianID != nil && *t.TechnicianID == technicianID
	}), nil
}

func (r ticketRepo) ListAll(_ context.Context) ([]domain.Ticket, error) {
	return r.filter(func(domain.Ticket) bool { return true }), nil
}

func (r ticketRepo) CountByTechnicianAndStatus(_ context.Context, technicianID int64, status domain.TicketStatus, excludeID int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	count := 0
	for _, t := range r.s.tickets {
		if t.ID == excludeID || t.Status != status {
			continue
		}
		if t.TechnicianID != nil && *t.TechnicianID == technicianID {
			count++
		}
	}
	return count, nil
}

func (r ticketRepo) filter(keep func(domain.Ticket) bool) []domain.Ticket {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tickets := []domain.Ticket{}
	for _, t := range r.s.tickets {
		if keep(t) {
			t.TechnicianID = cloneInt64(t.TechnicianID)
			tickets = append(tickets, t)
		}
	}
	sort.Slice(tickets, func(i, j int) bool {
		if !tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
		}
		return tickets[i].ID > tickets[j].ID
	})
	return tickets
}

type historyRepo struct{ s *Store }

func (r historyRepo) Create(ctx context.Context, history *domain.TicketHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[history.TicketID]; !ok {
		return repository.ErrReferenced
	}
	history.ID = r.s.next("ticket_history")
	stored := *history
	if history.FromStatus != nil {
		from := *history.FromStatus
		stored.FromStatus = &from
	}
	record(ctx, r.s.history, history.ID)
	r.s.history[history.ID] = stored
	return nil
}

func (r historyRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	entries := []domain.TicketHistory{}
	for _, h := range r.s.history {
		if h.TicketID == ticketID {
			entries = append(entries, h)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}
