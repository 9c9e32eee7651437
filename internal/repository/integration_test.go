//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("helpdesk"),
		postgres.WithUsername("helpdesk"),
		postgres.WithPassword("helpdesk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, persistence.RunMigrations(dsn, persistence.MigrateUp, zap.NewNop()))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

type fixture struct {
	users       repository.UserRepository
	clients     repository.ClientRepository
	technicians repository.TechnicianRepository
	categories  repository.CategoryRepository
	tickets     repository.TicketRepository
	history     repository.TicketHistoryRepository
	tx          repository.TxManager

	category   domain.Category
	client     domain.Client
	technician domain.Technician
}

func newFixture(t *testing.T) *fixture {
	pool := setupTestDB(t)
	ctx := context.Background()
	f := &fixture{
		users:       repository.NewUserRepository(pool),
		clients:     repository.NewClientRepository(pool),
		technicians: repository.NewTechnicianRepository(pool),
		categories:  repository.NewCategoryRepository(pool),
		tickets:     repository.NewTicketRepository(pool),
		history:     repository.NewTicketHistoryRepository(pool),
		tx:          repository.NewTxManager(pool),
	}

	now := time.Now().UTC()
	clientUser := &domain.User{Name: "Client", Email: "client@example.com", PasswordHash: "x", Role: domain.RoleClient, CreatedAt: now, UpdatedAt: now}
	techUser := &domain.User{Name: "Tech", Email: "tech@example.com", PasswordHash: "x", Role: domain.RoleTechnician, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.users.Create(ctx, clientUser))
	require.NoError(t, f.users.Create(ctx, techUser))

	f.category = domain.Category{Name: "Software incident"}
	f.client = domain.Client{Name: "Beta", ContactEmail: "it@beta.test", UserID: clientUser.ID}
	f.technician = domain.Technician{Name: "Tech", Available: true, UserID: techUser.ID}
	require.NoError(t, f.categories.Create(ctx, &f.category))
	require.NoError(t, f.clients.Create(ctx, &f.client))
	require.NoError(t, f.technicians.Create(ctx, &f.technician))
	return f
}

func (f *fixture) newTicket(t *testing.T, status domain.TicketStatus, createdAt time.Time) domain.Ticket {
	t.Helper()
	techID := f.technician.ID
	ticket := domain.Ticket{
		Title:        "Printer jammed",
		Description:  "Billing printer jams on every job",
		Status:       status,
		Priority:     domain.TicketPriorityMedium,
		CategoryID:   f.category.ID,
		ClientID:     f.client.ID,
		TechnicianID: &techID,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	require.NoError(t, f.tickets.Create(context.Background(), &ticket))
	return ticket
}

func TestUniqueViolationsMapToDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.users.Create(ctx, &domain.User{Name: "Dup", Email: "client@example.com", PasswordHash: "x", Role: domain.RoleClient})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	err = f.categories.Create(ctx, &domain.Category{Name: "Software incident"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	err = f.clients.Create(ctx, &domain.Client{Name: "Again", ContactEmail: "x@y.z", UserID: f.client.UserID})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestDeleteReferencedCategory(t *testing.T) {
	f := newFixture(t)
	f.newTicket(t, domain.TicketStatusOpen, time.Now().UTC())

	err := f.categories.Delete(context.Background(), f.category.ID)
	assert.ErrorIs(t, err, repository.ErrReferenced)
}

func TestTicketListsAndCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	older := f.newTicket(t, domain.TicketStatusInProgress, base)
	newer := f.newTicket(t, domain.TicketStatusInProgress, base.Add(time.Hour))
	f.newTicket(t, domain.TicketStatusOpen, base.Add(30*time.Minute))

	byClient, err := f.tickets.ListByClient(ctx, f.client.ID)
	require.NoError(t, err)
	require.Len(t, byClient, 3)
	assert.Equal(t, newer.ID, byClient[0].ID)
	assert.Equal(t, older.ID, byClient[2].ID)

	count, err := f.tickets.CountByTechnicianAndStatus(ctx, f.technician.ID, domain.TicketStatusInProgress, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = f.tickets.CountByTechnicianAndStatus(ctx, f.technician.ID, domain.TicketStatusInProgress, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = f.tickets.GetByID(ctx, 424242)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTxRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.newTicket(t, domain.TicketStatusOpen, time.Now().UTC())

	err := f.tx.InTx(ctx, func(ctx context.Context) error {
		locked, err := f.tickets.GetByIDForUpdate(ctx, ticket.ID)
		if err != nil {
			return err
		}
		require.NoError(t, f.technicians.Lock(ctx, f.technician.ID))
		locked.Status = domain.TicketStatusInProgress
		if err := f.tickets.Update(ctx, locked); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	reloaded, err := f.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, reloaded.Status)
}

func TestHistoryRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.newTicket(t, domain.TicketStatusOpen, time.Now().UTC())
	open := domain.TicketStatusOpen

	require.NoError(t, f.history.Create(ctx, &domain.TicketHistory{TicketID: ticket.ID, ChangedBy: 1, ToStatus: open, CreatedAt: time.Now().UTC()}))
	require.NoError(t, f.history.Create(ctx, &domain.TicketHistory{TicketID: ticket.ID, ChangedBy: 2, FromStatus: &open, ToStatus: domain.TicketStatusInProgress, CreatedAt: time.Now().UTC()}))

	entries, err := f.history.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].FromStatus)
	require.NotNil(t, entries[1].FromStatus)
	assert.Equal(t, domain.TicketStatusOpen, *entries[1].FromStatus)
}
