package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Demo account passwords written by the seeder.
const (
	SeedAdminPassword      = "Admin123*"
	SeedTechnicianPassword = "Tech123*"
	SeedClientPassword     = "Client123*"
)

// Seeder loads demo data. Each table is skipped when it already has rows, so
// running it twice is harmless.
type Seeder struct {
	users       repository.UserRepository
	clients     repository.ClientRepository
	technicians repository.TechnicianRepository
	categories  repository.CategoryRepository
	tickets     repository.TicketRepository
	tx          repository.TxManager
	bcryptCost  int
	logger      *zap.Logger
	now         Clock
}

// SeedDependencies bundles collaborators for the seeder.
type SeedDependencies struct {
	UserRepo       repository.UserRepository
	ClientRepo     repository.ClientRepository
	TechnicianRepo repository.TechnicianRepository
	CategoryRepo   repository.CategoryRepository
	TicketRepo     repository.TicketRepository
	Tx             repository.TxManager
	BcryptCost     int
	Logger         *zap.Logger
	Clock          Clock
}

func NewSeeder(deps SeedDependencies) *Seeder {
	return &Seeder{
		users:       deps.UserRepo,
		clients:     deps.ClientRepo,
		technicians: deps.TechnicianRepo,
		categories:  deps.CategoryRepo,
		tickets:     deps.TicketRepo,
		tx:          deps.Tx,
		bcryptCost:  deps.BcryptCost,
		logger:      deps.Logger,
		now:         clockOrDefault(deps.Clock),
	}
}

// Run seeds users, clients, technicians, categories and tickets in order
// inside one transaction.
func (s *Seeder) Run(ctx context.Context) error {
	steps := []struct {
		table string
		run   func(context.Context) (bool, error)
	}{
		{"users", s.seedUsers},
		{"clients", s.seedClients},
		{"technicians", s.seedTechnicians},
		{"categories", s.seedCategories},
		{"tickets", s.seedTickets},
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, step := range steps {
			seeded, err := step.run(ctx)
			if err != nil {
				return fmt.Errorf("seed %s: %w", step.table, err)
			}
			if seeded {
				s.logger.Info("seeded table", zap.String("table", step.table))
			} else {
				s.logger.Info("table already populated, skipping", zap.String("table", step.table))
			}
		}
		return nil
	})
}

func (s *Seeder) seedUsers(ctx context.Context) (bool, error) {
	existing, err := s.users.List(ctx)
	if err != nil || len(existing) > 0 {
		return false, err
	}

	hashes := map[domain.Role]string{}
	for role, password := range map[domain.Role]string{
		domain.RoleAdmin:      SeedAdminPassword,
		domain.RoleTechnician: SeedTechnicianPassword,
		domain.RoleClient:     SeedClientPassword,
	} {
		hash, err := auth.HashPassword(password, s.bcryptCost)
		if err != nil {
			return false, err
		}
		hashes[role] = hash
	}

	now := s.now()
	seed := []domain.User{
		{Name: "Global Support Admin", Email: "admin@techhelpdesk.com", Role: domain.RoleAdmin},
		{Name: "Hardware Technician", Email: "tech.hardware@techhelpdesk.com", Role: domain.RoleTechnician},
		{Name: "Software Technician", Email: "tech.software@techhelpdesk.com", Role: domain.RoleTechnician},
		{Name: "Client Alpha", Email: "client.alpha@company.com", Role: domain.RoleClient},
		{Name: "Client Beta", Email: "client.beta@company.com", Role: domain.RoleClient},
	}
	for i := range seed {
		user := seed[i]
		user.PasswordHash = hashes[user.Role]
		user.CreatedAt = now
		user.UpdatedAt = now
		if err := s.users.Create(ctx, &user); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *Seeder) usersWithRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.User
	for _, u := range users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Seeder) seedClients(ctx context.Context) (bool, error) {
	existing, err := s.clients.List(ctx)
	if err != nil || len(existing) > 0 {
		return false, err
	}
	owners, err := s.usersWithRole(ctx, domain.RoleClient)
	if err != nil {
		return false, err
	}
	if len(owners) < 2 {
		s.logger.Warn("not enough CLIENT users to seed clients")
		return false, nil
	}

	seed := []domain.Client{
		{Name: "Client Alpha", Company: strPtr("Alpha Corp"), ContactEmail: "support@alpha.example.com", UserID: owners[0].ID},
		{Name: "Client Beta", Company: strPtr("Beta Ltd"), ContactEmail: "it@beta.example.com", UserID: owners[1].ID},
	}
	for i := range seed {
		if err := s.clients.Create(ctx, &seed[i]); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *Seeder) seedTechnicians(ctx context.Context) (bool, error) {
	existing, err := s.technicians.List(ctx)
	if err != nil || len(existing) > 0 {
		return false, err
	}
	owners, err := s.usersWithRole(ctx, domain.RoleTechnician)
	if err != nil {
		return false, err
	}
	if len(owners) < 2 {
		s.logger.Warn("not enough TECHNICIAN users to seed technicians")
		return false, nil
	}

	seed := []domain.Technician{
		{Name: "Hardware Technician", Specialty: strPtr("Physical equipment, networking and cabling"), Available: true, UserID: owners[0].ID},
		{Name: "Software Technician", Specialty: strPtr("Operating systems and corporate applications"), Available: true, UserID: owners[1].ID},
	}
	for i := range seed {
		if err := s.technicians.Create(ctx, &seed[i]); err != nil {
			return false, err
		}
	}
	return true, nil
}

const (
	seedCategoryRequest  = "Request"
	seedCategoryHardware = "Hardware incident"
	seedCategorySoftware = "Software incident"
)

func (s *Seeder) seedCategories(ctx context.Context) (bool, error) {
	existing, err := s.categories.List(ctx)
	if err != nil || len(existing) > 0 {
		return false, err
	}
	seed := []domain.Category{
		{Name: seedCategoryRequest, Description: strPtr("Non-critical service requests: new accounts, access, minor configuration.")},
		{Name: seedCategoryHardware, Description: strPtr("Failures in physical equipment: computers, printers, servers, cabling.")},
		{Name: seedCategorySoftware, Description: strPtr("Errors in applications, operating systems, corporate systems and licenses.")},
	}
	for i := range seed {
		if err := s.categories.Create(ctx, &seed[i]); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *Seeder) seedTickets(ctx context.Context) (bool, error) {
	existing, err := s.tickets.ListAll(ctx)
	if err != nil || len(existing) > 0 {
		return false, err
	}
	clients, err := s.clients.List(ctx)
	if err != nil {
		return false, err
	}
	technicians, err := s.technicians.List(ctx)
	if err != nil {
		return false, err
	}
	if len(clients) < 2 || len(technicians) < 2 {
		s.logger.Warn("not enough clients or technicians to seed tickets")
		return false, nil
	}

	categoryIDs := map[string]int64{}
	for _, name := range []string{seedCategoryRequest, seedCategoryHardware, seedCategorySoftware} {
		category, err := s.categories.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.logger.Warn("expected category missing", zap.String("category", name))
				return false, nil
			}
			return false, err
		}
		categoryIDs[name] = category.ID
	}

	alpha, beta := clients[0].ID, clients[1].ID
	hardware, software := technicians[0].ID, technicians[1].ID
	seed := []domain.Ticket{
		{
			Title:        "Create ERP user account",
			Description:  "A new accounting analyst needs a user in the corporate ERP.",
			Status:       domain.TicketStatusOpen,
			Priority:     domain.TicketPriorityLow,
			CategoryID:   categoryIDs[seedCategoryRequest],
			ClientID:     alpha,
			TechnicianID: &software,
		},
		{
			Title:        "File server does not power on",
			Description:  "The third floor file server has been unresponsive since 7:00 a.m.",
			Status:       domain.TicketStatusInProgress,
			Priority:     domain.TicketPriorityHigh,
			CategoryID:   categoryIDs[seedCategoryHardware],
			ClientID:     beta,
			TechnicianID: &hardware,
		},
		{
			Title:        "Payroll report generation fails",
			Description:  "Generating the monthly payroll report shows a database error.",
			Status:       domain.TicketStatusInProgress,
			Priority:     domain.TicketPriorityMedium,
			CategoryID:   categoryIDs[seedCategorySoftware],
			ClientID:     alpha,
			TechnicianID: &software,
		},
		{
			Title:        "Billing printer keeps jamming",
			Description:  "The billing printer at headquarters jams frequently.",
			Status:       domain.TicketStatusResolved,
			Priority:     domain.TicketPriorityMedium,
			CategoryID:   categoryIDs[seedCategoryHardware],
			ClientID:     beta,
			TechnicianID: &hardware,
		},
	}

	now := s.now()
	for i := range seed {
		ticket := seed[i]
		ticket.CreatedAt = now
		ticket.UpdatedAt = now
		if err := s.tickets.Create(ctx, &ticket); err != nil {
			return false, err
		}
	}
	return true, nil
}

func strPtr(s string) *string { return &s }
