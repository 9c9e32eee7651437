package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const minPasswordLength = 6

// UserService is the admin surface over accounts.
type UserService struct {
	users      repository.UserRepository
	policy     authz.Policy
	bcryptCost int
	now        Clock
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Policy     authz.Policy
	BcryptCost int
	Clock      Clock
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		policy:     deps.Policy,
		bcryptCost: deps.BcryptCost,
		now:        clockOrDefault(deps.Clock),
	}
}

// UserInput is the create payload. Role defaults to CLIENT.
type UserInput struct {
	Name     string
	Email    string
	Password string
	Role     *domain.Role
}

// UserUpdateInput carries the optional fields of a user update. Password is
// plaintext and re-hashed when present.
type UserUpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
}

func (s *UserService) Create(ctx context.Context, principal domain.Principal, input UserInput) (*domain.User, error) {
	if err := s.policy.Authorize(principal, authz.OpUserCreate); err != nil {
		return nil, err
	}
	input.Email = strings.TrimSpace(input.Email)
	errs := fieldErrors{}
	errs.require("name", input.Name)
	errs.email("email", input.Email)
	if utf8.RuneCountInString(input.Password) < minPasswordLength {
		errs["password"] = "must be at least 6 characters"
	}
	role := domain.RoleClient
	if input.Role != nil {
		role = *input.Role
		if !role.Valid() {
			errs["role"] = "must be one of ADMIN, TECHNICIAN, CLIENT"
		}
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, input.Email, 0); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	now := s.now()
	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, emailWriteErr(err, input.Email)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, principal domain.Principal) ([]domain.User, error) {
	if err := s.policy.Authorize(principal, authz.OpUserList); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	return users, mapRepoErr(err, "user")
}

func (s *UserService) Get(ctx context.Context, principal domain.Principal, id int64) (*domain.User, error) {
	if err := s.policy.Authorize(principal, authz.OpUserGet); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	return user, mapRepoErr(err, "user")
}

func (s *UserService) Update(ctx context.Context, principal domain.Principal, id int64, input UserUpdateInput) (*domain.User, error) {
	if err := s.policy.Authorize(principal, authz.OpUserUpdate); err != nil {
		return nil, err
	}
	patch := domain.UserPatch{Name: trimPtr(input.Name), Email: trimPtr(input.Email), Role: input.Role}
	errs := fieldErrors{}
	if patch.Name != nil {
		errs.require("name", *patch.Name)
	}
	if patch.Email != nil {
		errs.email("email", *patch.Email)
	}
	if input.Password != nil && utf8.RuneCountInString(*input.Password) < minPasswordLength {
		errs["password"] = "must be at least 6 characters"
	}
	if patch.Role != nil && !patch.Role.Valid() {
		errs["role"] = "must be one of ADMIN, TECHNICIAN, CLIENT"
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	if patch.Email != nil && *patch.Email != existing.Email {
		if err := s.ensureEmailFree(ctx, *patch.Email, id); err != nil {
			return nil, err
		}
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		patch.PasswordHash = &hash
	}

	updated := patch.Apply(*existing)
	updated.UpdatedAt = s.now()
	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, emailWriteErr(err, updated.Email)
	}
	return &updated, nil
}

func (s *UserService) Delete(ctx context.Context, principal domain.Principal, id int64) error {
	if err := s.policy.Authorize(principal, authz.OpUserDelete); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.NewConflict("user profile still has tickets", map[string]any{"user_id": id})
		}
		return mapRepoErr(err, "user")
	}
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, except int64) error {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return mapRepoErr(err, "user")
	case existing.ID != except:
		return apperrors.NewConflict("email already registered", map[string]any{"email": email})
	}
	return nil
}

func emailWriteErr(err error, email string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.NewConflict("email already registered", map[string]any{"email": email})
	}
	return mapRepoErr(err, "user")
}
