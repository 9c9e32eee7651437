// Package memstore is a mutex-guarded, in-process implementation of every
// repository interface. It backs the service when no Postgres DSN is
// configured and is the store used by service and handler tests.
package memstore

import (
	"context"
	"sync"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Store holds all tables. Transactions are serialized by txMu; individual
// reads and writes take mu.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	seq         map[string]int64
	users       map[int64]domain.User
	clients     map[int64]domain.Client
	technicians map[int64]domain.Technician
	categories  map[int64]domain.Category
	tickets     map[int64]domain.Ticket
	history     map[int64]domain.TicketHistory
}

// New returns an empty store.
func New() *Store {
	return &Store{
		seq:         map[string]int64{},
		users:       map[int64]domain.User{},
		clients:     map[int64]domain.Client{},
		technicians: map[int64]domain.Technician{},
		categories:  map[int64]domain.Category{},
		tickets:     map[int64]domain.Ticket{},
		history:     map[int64]domain.TicketHistory{},
	}
}

type txKey struct{}

// txLog collects undo steps for the writes made inside one transaction.
// Sequences are not rewound, as in Postgres.
type txLog struct {
	undo []func()
}

// InTx runs fn while holding the store-wide transaction lock. When fn fails
// only the rows fn wrote are put back; writes made outside the transaction
// are kept.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &txLog{}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		s.rollback(tx)
		return err
	}
	return nil
}

func (s *Store) rollback(tx *txLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
}

// record saves the current value of m[id] on the transaction in ctx, if
// any. Callers hold mu for writing.
func record[V any](ctx context.Context, m map[int64]V, id int64) {
	tx, ok := ctx.Value(txKey{}).(*txLog)
	if !ok {
		return
	}
	old, had := m[id]
	tx.undo = append(tx.undo, func() {
		if had {
			m[id] = old
		} else {
			delete(m, id)
		}
	})
}

// next must be called with mu held for writing.
func (s *Store) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// Users returns the user repository view.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Clients returns the client repository view.
func (s *Store) Clients() repository.ClientRepository { return clientRepo{s} }

// Technicians returns the technician repository view.
func (s *Store) Technicians() repository.TechnicianRepository { return technicianRepo{s} }

// Categories returns the category repository view.
func (s *Store) Categories() repository.CategoryRepository { return categoryRepo{s} }

// Tickets returns the ticket repository view.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// History returns the ticket history repository view.
func (s *Store) History() repository.TicketHistoryRepository { return historyRepo{s} }

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
