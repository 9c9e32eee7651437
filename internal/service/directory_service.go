package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/cache"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// DirectoryService manages categories, clients and technicians and resolves
// them by id for the ticket engine.
type DirectoryService struct {
	categories  repository.CategoryRepository
	clients     repository.ClientRepository
	technicians repository.TechnicianRepository
	users       repository.UserRepository
	cache       *cache.Cache
	policy      authz.Policy
	logger      *zap.Logger
}

// DirectoryDependencies bundles collaborators for the directory service.
type DirectoryDependencies struct {
	CategoryRepo   repository.CategoryRepository
	ClientRepo     repository.ClientRepository
	TechnicianRepo repository.TechnicianRepository
	UserRepo       repository.UserRepository
	// Cache may be nil.
	Cache  *cache.Cache
	Policy authz.Policy
	Logger *zap.Logger
}

// NewDirectoryService constructs the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	return &DirectoryService{
		categories:  deps.CategoryRepo,
		clients:     deps.ClientRepo,
		technicians: deps.TechnicianRepo,
		users:       deps.UserRepo,
		cache:       deps.Cache,
		policy:      deps.Policy,
		logger:      deps.Logger,
	}
}

func categoryKey(id int64) string   { return "category:" + strconv.FormatInt(id, 10) }
func clientKey(id int64) string     { return "client:" + strconv.FormatInt(id, 10) }
func technicianKey(id int64) string { return "technician:" + strconv.FormatInt(id, 10) }

// ResolveCategory loads a category by id through the lookup cache.
func (s *DirectoryService) ResolveCategory(ctx context.Context, id int64) (*domain.Category, error) {
	category, err := cache.Load(ctx, s.cache, categoryKey(id), func(ctx context.Context) (*domain.Category, error) {
		return s.categories.GetByID(ctx, id)
	})
	return category, mapRepoErr(err, "category")
}

// ResolveClient loads a client by id through the lookup cache.
func (s *DirectoryService) ResolveClient(ctx context.Context, id int64) (*domain.Client, error) {
	client, err := cache.Load(ctx, s.cache, clientKey(id), func(ctx context.Context) (*domain.Client, error) {
		return s.clients.GetByID(ctx, id)
	})
	return client, mapRepoErr(err, "client")
}

// ResolveTechnician loads a technician by id through the lookup cache.
func (s *DirectoryService) ResolveTechnician(ctx context.Context, id int64) (*domain.Technician, error) {
	technician, err := cache.Load(ctx, s.cache, technicianKey(id), func(ctx context.Context) (*domain.Technician, error) {
		return s.technicians.GetByID(ctx, id)
	})
	return technician, mapRepoErr(err, "technician")
}

// CategoryInput is the create payload for a category.
type CategoryInput struct {
	Name        string
	Description string
}

func (s *DirectoryService) CreateCategory(ctx context.Context, principal domain.Principal, input CategoryInput) (*domain.Category, error) {
	if err := s.policy.Authorize(principal, authz.OpCategoryCreate); err != nil {
		return nil, err
	}
	errs := fieldErrors{}
	errs.require("name", input.Name)
	errs.require("description", input.Description)
	if err := errs.err(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if _, err := s.categories.GetByName(ctx, name); err == nil {
		return nil, apperrors.NewConflict("category name already in use", map[string]any{"name": name})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, mapRepoErr(err, "category")
	}

	description := strings.TrimSpace(input.Description)
	category := &domain.Category{Name: name, Description: &description}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, mapRepoErr(err, "category")
	}
	return category, nil
}

func (s *DirectoryService) ListCategories(ctx context.Context, principal domain.Principal) ([]domain.Category, error) {
	if err := s.policy.Authorize(principal, authz.OpCategoryList); err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx)
	return categories, mapRepoErr(err, "category")
}

func (s *DirectoryService) GetCategory(ctx context.Context, principal domain.Principal, id int64) (*domain.Category, error) {
	if err := s.policy.Authorize(principal, authz.OpCategoryGet); err != nil {
		return nil, err
	}
	category, err := s.categories.GetByID(ctx, id)
	return category, mapRepoErr(err, "category")
}

func (s *DirectoryService) UpdateCategory(ctx context.Context, principal domain.Principal, id int64, patch domain.CategoryPatch) (*domain.Category, error) {
	if err := s.policy.Authorize(principal, authz.OpCategoryUpdate); err != nil {
		return nil, err
	}
	patch.Name = trimPtr(patch.Name)
	patch.Description = trimPtr(patch.Description)
	errs := fieldErrors{}
	if patch.Name != nil {
		errs.require("name", *patch.Name)
	}
	if patch.Description != nil {
		errs.require("description", *patch.Description)
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	existing, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "category")
	}
	if patch.Name != nil && *patch.Name != existing.Name {
		if _, err := s.categories.GetByName(ctx, *patch.Name); err == nil {
			return nil, apperrors.NewConflict("category name already in use", map[string]any{"name": *patch.Name})
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, mapRepoErr(err, "category")
		}
	}

	updated := patch.Apply(*existing)
	if err := s.categories.Update(ctx, &updated); err != nil {
		return nil, mapRepoErr(err, "category")
	}
	s.cache.Invalidate(ctx, categoryKey(id))
	return &updated, nil
}

func (s *DirectoryService) DeleteCategory(ctx context.Context, principal domain.Principal, id int64) error {
	if err := s.policy.Authorize(principal, authz.OpCategoryDelete); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.NewConflict("category still has tickets", map[string]any{"category_id": id})
		}
		return mapRepoErr(err, "category")
	}
	s.cache.Invalidate(ctx, categoryKey(id))
	return nil
}

// ClientInput is the create payload for a client profile.
type ClientInput struct {
	Name         string
	Company      *string
	ContactEmail string
	UserID       int64
}

func (s *DirectoryService) CreateClient(ctx context.Context, principal domain.Principal, input ClientInput) (*domain.Client, error) {
	if err := s.policy.Authorize(principal, authz.OpClientCreate); err != nil {
		return nil, err
	}
	input.ContactEmail = strings.TrimSpace(input.ContactEmail)
	errs := fieldErrors{}
	errs.require("name", input.Name)
	errs.email("contact_email", input.ContactEmail)
	errs.positive("user_id", input.UserID)
	if err := errs.err(); err != nil {
		return nil, err
	}
	if err := s.ensureUserFree(ctx, input.UserID, s.clientForUser); err != nil {
		return nil, err
	}

	client := &domain.Client{
		Name:         strings.TrimSpace(input.Name),
		Company:      trimPtr(input.Company),
		ContactEmail: input.ContactEmail,
		UserID:       input.UserID,
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, s.profileWriteErr(err, "client", input.UserID)
	}
	return client, nil
}

func (s *DirectoryService) ListClients(ctx context.Context, principal domain.Principal) ([]domain.Client, error) {
	if err := s.policy.Authorize(principal, authz.OpClientList); err != nil {
		return nil, err
	}
	clients, err := s.clients.List(ctx)
	return clients, mapRepoErr(err, "client")
}

func (s *DirectoryService) GetClient(ctx context.Context, principal domain.Principal, id int64) (*domain.Client, error) {
	if err := s.policy.Authorize(principal, authz.OpClientGet); err != nil {
		return nil, err
	}
	client, err := s.clients.GetByID(ctx, id)
	return client, mapRepoErr(err, "client")
}

func (s *DirectoryService) UpdateClient(ctx context.Context, principal domain.Principal, id int64, patch domain.ClientPatch) (*domain.Client, error) {
	if err := s.policy.Authorize(principal, authz.OpClientUpdate); err != nil {
		return nil, err
	}
	patch.Name = trimPtr(patch.Name)
	patch.Company = trimPtr(patch.Company)
	patch.ContactEmail = trimPtr(patch.ContactEmail)
	errs := fieldErrors{}
	if patch.Name != nil {
		errs.require("name", *patch.Name)
	}
	if patch.ContactEmail != nil {
		errs.email("contact_email", *patch.ContactEmail)
	}
	if patch.UserID != nil {
		errs.positive("user_id", *patch.UserID)
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	existing, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "client")
	}
	if patch.UserID != nil && *patch.UserID != existing.UserID {
		if err := s.ensureUserFree(ctx, *patch.UserID, s.clientForUser); err != nil {
			return nil, err
		}
	}

	updated := patch.Apply(*existing)
	if err := s.clients.Update(ctx, &updated); err != nil {
		return nil, s.profileWriteErr(err, "client", updated.UserID)
	}
	s.cache.Invalidate(ctx, clientKey(id))
	return &updated, nil
}

func (s *DirectoryService) DeleteClient(ctx context.Context, principal domain.Principal, id int64) error {
	if err := s.policy.Authorize(principal, authz.OpClientDelete); err != nil {
		return err
	}
	if err := s.clients.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.NewConflict("client still has tickets", map[string]any{"client_id": id})
		}
		return mapRepoErr(err, "client")
	}
	s.cache.Invalidate(ctx, clientKey(id))
	return nil
}

// TechnicianInput is the create payload for a technician profile. Available
// defaults to true.
type TechnicianInput struct {
	Name      string
	Specialty *string
	Available *bool
	UserID    int64
}

func (s *DirectoryService) CreateTechnician(ctx context.Context, principal domain.Principal, input TechnicianInput) (*domain.Technician, error) {
	if err := s.policy.Authorize(principal, authz.OpTechnicianCreate); err != nil {
		return nil, err
	}
	errs := fieldErrors{}
	errs.require("name", input.Name)
	errs.positive("user_id", input.UserID)
	if err := errs.err(); err != nil {
		return nil, err
	}
	if err := s.ensureUserFree(ctx, input.UserID, s.technicianForUser); err != nil {
		return nil, err
	}

	technician := &domain.Technician{
		Name:      strings.TrimSpace(input.Name),
		Specialty: trimPtr(input.Specialty),
		Available: true,
		UserID:    input.UserID,
	}
	if input.Available != nil {
		technician.Available = *input.Available
	}
	if err := s.technicians.Create(ctx, technician); err != nil {
		return nil, s.profileWriteErr(err, "technician", input.UserID)
	}
	return technician, nil
}

func (s *DirectoryService) ListTechnicians(ctx context.Context, principal domain.Principal) ([]domain.Technician, error) {
	if err := s.policy.Authorize(principal, authz.OpTechnicianList); err != nil {
		return nil, err
	}
	technicians, err := s.technicians.List(ctx)
	return technicians, mapRepoErr(err, "technician")
}

func (s *DirectoryService) GetTechnician(ctx context.Context, principal domain.Principal, id int64) (*domain.Technician, error) {
	if err := s.policy.Authorize(principal, authz.OpTechnicianGet); err != nil {
		return nil, err
	}
	technician, err := s.technicians.GetByID(ctx, id)
	return technician, mapRepoErr(err, "technician")
}

func (s *DirectoryService) UpdateTechnician(ctx context.Context, principal domain.Principal, id int64, patch domain.TechnicianPatch) (*domain.Technician, error) {
	if err := s.policy.Authorize(principal, authz.OpTechnicianUpdate); err != nil {
		return nil, err
	}
	patch.Name = trimPtr(patch.Name)
	patch.Specialty = trimPtr(patch.Specialty)
	errs := fieldErrors{}
	if patch.Name != nil {
		errs.require("name", *patch.Name)
	}
	if patch.UserID != nil {
		errs.positive("user_id", *patch.UserID)
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	existing, err := s.technicians.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "technician")
	}
	if patch.UserID != nil && *patch.UserID != existing.UserID {
		if err := s.ensureUserFree(ctx, *patch.UserID, s.technicianForUser); err != nil {
			return nil, err
		}
	}

	updated := patch.Apply(*existing)
	if err := s.technicians.Update(ctx, &updated); err != nil {
		return nil, s.profileWriteErr(err, "technician", updated.UserID)
	}
	s.cache.Invalidate(ctx, technicianKey(id))
	return &updated, nil
}

func (s *DirectoryService) DeleteTechnician(ctx context.Context, principal domain.Principal, id int64) error {
	if err := s.policy.Authorize(principal, authz.OpTechnicianDelete); err != nil {
		return err
	}
	if err := s.technicians.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.NewConflict("technician still has tickets", map[string]any{"technician_id": id})
		}
		return mapRepoErr(err, "technician")
	}
	s.cache.Invalidate(ctx, technicianKey(id))
	return nil
}

func (s *DirectoryService) clientForUser(ctx context.Context, userID int64) error {
	_, err := s.clients.GetByUserID(ctx, userID)
	return err
}

func (s *DirectoryService) technicianForUser(ctx context.Context, userID int64) error {
	_, err := s.technicians.GetByUserID(ctx, userID)
	return err
}

// ensureUserFree checks the user exists and has no profile of the kind that
// lookup finds. The unique constraint remains the authoritative guard.
func (s *DirectoryService) ensureUserFree(ctx context.Context, userID int64, lookup func(context.Context, int64) error) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return mapRepoErr(err, "user")
	}
	err := lookup(ctx, userID)
	switch {
	case err == nil:
		return apperrors.NewConflict("user already has a profile of this kind", map[string]any{"user_id": userID})
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return mapRepoErr(err, "user")
	}
}

func (s *DirectoryService) profileWriteErr(err error, resource string, userID int64) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("user already has a profile of this kind", map[string]any{"user_id": userID})
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.NewNotFound("user", nil)
	}
	return mapRepoErr(err, resource)
}
