package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const maxTitleLength = 200

// DirectoryResolver resolves ticket associations by id.
type DirectoryResolver interface {
	ResolveCategory(ctx context.Context, id int64) (*domain.Category, error)
	ResolveClient(ctx context.Context, id int64) (*domain.Client, error)
	ResolveTechnician(ctx context.Context, id int64) (*domain.Technician, error)
}

// TechnicianLocker serializes capacity checks for one technician.
type TechnicianLocker interface {
	Lock(ctx context.Context, id int64) error
}

// TicketService runs the ticket lifecycle: creation, status transitions with
// the technician in-progress cap, and reads.
type TicketService struct {
	tickets     repository.TicketRepository
	history     repository.TicketHistoryRepository
	technicians TechnicianLocker
	tx          repository.TxManager
	directory   DirectoryResolver
	policy      authz.Policy
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         Clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	HistoryRepo    repository.TicketHistoryRepository
	TechnicianLock TechnicianLocker
	Tx             repository.TxManager
	Directory      DirectoryResolver
	Policy         authz.Policy
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Clock          Clock
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		history:     deps.HistoryRepo,
		technicians: deps.TechnicianLock,
		tx:          deps.Tx,
		directory:   deps.Directory,
		policy:      deps.Policy,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		now:         clockOrDefault(deps.Clock),
	}
}

// TicketCreateInput describes ticket creation payload. There is no status
// field: new tickets always start OPEN.
type TicketCreateInput struct {
	Title        string
	Description  string
	Priority     domain.TicketPriority
	CategoryID   int64
	ClientID     int64
	TechnicianID int64
}

func (in TicketCreateInput) validate() error {
	errs := fieldErrors{}
	errs.require("title", in.Title)
	errs.require("description", in.Description)
	if utf8.RuneCountInString(strings.TrimSpace(in.Title)) > maxTitleLength {
		errs["title"] = "must be at most 200 characters"
	}
	if !in.Priority.Valid() {
		errs["priority"] = "must be one of LOW, MEDIUM, HIGH"
	}
	errs.positive("category_id", in.CategoryID)
	errs.positive("client_id", in.ClientID)
	errs.positive("technician_id", in.TechnicianID)
	return errs.err()
}

// Create opens a ticket. The caller's role is checked first, then the input;
// category, client and technician are resolved in that order.
func (s *TicketService) Create(ctx context.Context, principal domain.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	if err := s.policy.Authorize(principal, authz.OpTicketCreate); err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	category, err := s.directory.ResolveCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	client, err := s.directory.ResolveClient(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}
	technician, err := s.directory.ResolveTechnician(ctx, input.TechnicianID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	technicianID := technician.ID
	ticket := &domain.Ticket{
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.TicketStatusOpen,
		Priority:     input.Priority,
		CategoryID:   category.ID,
		ClientID:     client.ID,
		TechnicianID: &technicianID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.tickets.Create(ctx, ticket); err != nil {
			return mapRepoErr(err, "ticket")
		}
		return s.recordHistory(ctx, principal, ticket.ID, nil, ticket.Status, now)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TicketCreated()
	s.logger.Info("ticket created",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("client_id", ticket.ClientID),
		zap.Int64("technician_id", technicianID))
	s.publish(ctx, events.NewEvent(events.EventTicketCreated, ticket.ID, principal, now, events.TicketCreatedPayload{
		Title:        ticket.Title,
		Priority:     ticket.Priority,
		CategoryID:   ticket.CategoryID,
		ClientID:     ticket.ClientID,
		TechnicianID: ticket.TechnicianID,
	}))
	return ticket, nil
}

// UpdateStatus moves a ticket one step along OPEN, IN_PROGRESS, RESOLVED,
// CLOSED. A missing ticket is reported before the caller's role is checked.
// Moving to IN_PROGRESS fails when the assigned technician already holds
// domain.MaxInProgressPerTechnician tickets in that status.
func (s *TicketService) UpdateStatus(ctx context.Context, principal domain.Principal, ticketID int64, next domain.TicketStatus) (*domain.Ticket, error) {
	if !next.Valid() {
		return nil, apperrors.NewValidationError("invalid input", map[string]any{
			"status": "must be one of OPEN, IN_PROGRESS, RESOLVED, CLOSED",
		})
	}

	var (
		updated  *domain.Ticket
		previous domain.TicketStatus
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.GetByIDForUpdate(ctx, ticketID)
		if err != nil {
			return mapRepoErr(err, "ticket")
		}
		if err := s.policy.Authorize(principal, authz.OpTicketUpdateStatus); err != nil {
			return err
		}
		if !domain.CanTransition(ticket.Status, next) {
			return apperrors.NewInvalidTransition(string(ticket.Status), string(next))
		}
		if next == domain.TicketStatusInProgress && ticket.TechnicianID != nil {
			if err := s.checkCapacity(ctx, *ticket.TechnicianID, ticket.ID); err != nil {
				return err
			}
		}

		previous = ticket.Status
		ticket.Status = next
		ticket.UpdatedAt = s.now()
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return mapRepoErr(err, "ticket")
		}
		if err := s.recordHistory(ctx, principal, ticket.ID, &previous, next, ticket.UpdatedAt); err != nil {
			return err
		}
		updated = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TicketTransitioned(string(previous), string(next))
	s.logger.Info("ticket status changed",
		zap.Int64("ticket_id", updated.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
		zap.Int64("actor_id", principal.UserID))
	s.publish(ctx, events.NewEvent(events.EventTicketStatusChanged, updated.ID, principal, updated.UpdatedAt, events.TicketStatusChangedPayload{
		OldStatus:    previous,
		NewStatus:    next,
		TechnicianID: updated.TechnicianID,
	}))
	return updated, nil
}

// checkCapacity must run inside the status transaction. The technician row
// lock makes concurrent transitions for one technician observe each other.
func (s *TicketService) checkCapacity(ctx context.Context, technicianID, ticketID int64) error {
	if err := s.technicians.Lock(ctx, technicianID); err != nil {
		return mapRepoErr(err, "technician")
	}
	inProgress, err := s.tickets.CountByTechnicianAndStatus(ctx, technicianID, domain.TicketStatusInProgress, ticketID)
	if err != nil {
		return mapRepoErr(err, "ticket")
	}
	if inProgress >= domain.MaxInProgressPerTechnician {
		s.metrics.CapacityRejected()
		return apperrors.NewCapacityExceeded(technicianID, inProgress, domain.MaxInProgressPerTechnician)
	}
	return nil
}

// FindByClient lists a client's tickets, newest first.
func (s *TicketService) FindByClient(ctx context.Context, principal domain.Principal, clientID int64) ([]domain.Ticket, error) {
	if err := s.policy.Authorize(principal, authz.OpTicketListByClient); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListByClient(ctx, clientID)
	return tickets, mapRepoErr(err, "ticket")
}

// FindByTechnician lists the tickets assigned to a technician, newest first.
func (s *TicketService) FindByTechnician(ctx context.Context, principal domain.Principal, technicianID int64) ([]domain.Ticket, error) {
	if err := s.policy.Authorize(principal, authz.OpTicketListByTechnician); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListByTechnician(ctx, technicianID)
	return tickets, mapRepoErr(err, "ticket")
}

// FindAll lists every ticket, newest first.
func (s *TicketService) FindAll(ctx context.Context, principal domain.Principal) ([]domain.Ticket, error) {
	if err := s.policy.Authorize(principal, authz.OpTicketListAll); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListAll(ctx)
	return tickets, mapRepoErr(err, "ticket")
}

// FindOne returns a single ticket.
func (s *TicketService) FindOne(ctx context.Context, principal domain.Principal, ticketID int64) (*domain.Ticket, error) {
	if err := s.policy.Authorize(principal, authz.OpTicketGet); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	return ticket, mapRepoErr(err, "ticket")
}

// History lists the status changes of a ticket, oldest first.
func (s *TicketService) History(ctx context.Context, principal domain.Principal, ticketID int64) ([]domain.TicketHistory, error) {
	if err := s.policy.Authorize(principal, authz.OpTicketHistory); err != nil {
		return nil, err
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, mapRepoErr(err, "ticket")
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	return entries, mapRepoErr(err, "ticket history")
}

func (s *TicketService) recordHistory(ctx context.Context, principal domain.Principal, ticketID int64, from *domain.TicketStatus, to domain.TicketStatus, at time.Time) error {
	entry := &domain.TicketHistory{
		TicketID:   ticketID,
		ChangedBy:  principal.UserID,
		FromStatus: from,
		ToStatus:   to,
		CreatedAt:  at,
	}
	return mapRepoErr(s.history.Create(ctx, entry), "ticket history")
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
