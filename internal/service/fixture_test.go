package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository/memstore"
)

var (
	adminPrincipal      = domain.Principal{UserID: 1, Email: "admin@example.com", Role: domain.RoleAdmin}
	technicianPrincipal = domain.Principal{UserID: 2, Email: "tech@example.com", Role: domain.RoleTechnician}
	clientPrincipal     = domain.Principal{UserID: 3, Email: "client@example.com", Role: domain.RoleClient}
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

type fixture struct {
	store      *memstore.Store
	directory  *DirectoryService
	tickets    *TicketService
	users      *UserService
	dispatcher *recordingDispatcher
	metrics    *observability.Metrics
	registry   *prometheus.Registry

	category   domain.Category
	client     domain.Client
	technician domain.Technician
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	logger := zap.NewNop()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	dispatcher := &recordingDispatcher{}
	clock := func() time.Time { return fixedNow }

	directory := NewDirectoryService(DirectoryDependencies{
		CategoryRepo:   store.Categories(),
		ClientRepo:     store.Clients(),
		TechnicianRepo: store.Technicians(),
		UserRepo:       store.Users(),
		Policy:         authz.DefaultPolicy,
		Logger:         logger,
	})
	f := &fixture{
		store:     store,
		directory: directory,
		tickets: NewTicketService(TicketDependencies{
			TicketRepo:     store.Tickets(),
			HistoryRepo:    store.History(),
			TechnicianLock: store.Technicians(),
			Tx:             store,
			Directory:      directory,
			Policy:         authz.DefaultPolicy,
			Dispatcher:     dispatcher,
			Metrics:        metrics,
			Logger:         logger,
			Clock:          clock,
		}),
		users: NewUserService(UserDependencies{
			UserRepo:   store.Users(),
			Policy:     authz.DefaultPolicy,
			BcryptCost: bcrypt.MinCost,
			Clock:      clock,
		}),
		dispatcher: dispatcher,
		metrics:    metrics,
		registry:   registry,
	}

	ctx := context.Background()
	f.category = f.mustCategory(t, "Hardware incident")
	clientUser := f.mustUser(t, "client@example.com", domain.RoleClient)
	client, err := directory.CreateClient(ctx, adminPrincipal, ClientInput{Name: "Alpha", ContactEmail: "it@alpha.example.com", UserID: clientUser.ID})
	require.NoError(t, err)
	f.client = *client
	f.technician = f.mustTechnician(t, "tech@example.com")
	return f
}

func (f *fixture) mustUser(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	user, err := f.users.Create(context.Background(), adminPrincipal, UserInput{Name: email, Email: email, Password: "secret1", Role: &role})
	require.NoError(t, err)
	return user
}

func (f *fixture) mustCategory(t *testing.T, name string) domain.Category {
	t.Helper()
	category, err := f.directory.CreateCategory(context.Background(), adminPrincipal, CategoryInput{Name: name, Description: name + " tickets"})
	require.NoError(t, err)
	return *category
}

func (f *fixture) mustTechnician(t *testing.T, email string) domain.Technician {
	t.Helper()
	user := f.mustUser(t, email, domain.RoleTechnician)
	technician, err := f.directory.CreateTechnician(context.Background(), adminPrincipal, TechnicianInput{Name: email, UserID: user.ID})
	require.NoError(t, err)
	return *technician
}

func (f *fixture) input() TicketCreateInput {
	return TicketCreateInput{
		Title:        "Printer not working",
		Description:  "The second floor printer shows a paper jam",
		Priority:     domain.TicketPriorityHigh,
		CategoryID:   f.category.ID,
		ClientID:     f.client.ID,
		TechnicianID: f.technician.ID,
	}
}

func (f *fixture) mustTicket(t *testing.T, technicianID int64) *domain.Ticket {
	t.Helper()
	in := f.input()
	in.TechnicianID = technicianID
	ticket, err := f.tickets.Create(context.Background(), clientPrincipal, in)
	require.NoError(t, err)
	return ticket
}

// mustTicketIn creates a ticket and walks it forward to status.
func (f *fixture) mustTicketIn(t *testing.T, technicianID int64, status domain.TicketStatus) *domain.Ticket {
	t.Helper()
	ticket := f.mustTicket(t, technicianID)
	for _, step := range []domain.TicketStatus{domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed} {
		if ticket.Status == status {
			break
		}
		var err error
		ticket, err = f.tickets.UpdateStatus(context.Background(), technicianPrincipal, ticket.ID, step)
		require.NoError(t, err)
	}
	return ticket
}

// metric sums the samples of name whose labels include every pair in labels.
func (f *fixture) metric(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := f.registry.Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	samples:
		for _, m := range family.GetMetric() {
			got := map[string]string{}
			for _, pair := range m.GetLabel() {
				got[pair.GetName()] = pair.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue samples
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
