package service

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Clock returns the current time. Services default to systemClock.
type Clock func() time.Time

// systemClock truncates to the microsecond precision Postgres stores.
func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return systemClock
	}
	return c
}

// mapRepoErr converts repository sentinels into domain errors for resource.
func mapRepoErr(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", nil)
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.NewConflict(resource+" is referenced by other records", nil)
	}
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return err
	}
	return apperrors.NewInternalError(err)
}

// fieldErrors collects per-field validation failures.
type fieldErrors map[string]string

func (f fieldErrors) require(field, value string) {
	if strings.TrimSpace(value) == "" {
		f[field] = "is required"
	}
}

func (f fieldErrors) email(field, value string) {
	if strings.TrimSpace(value) == "" {
		f[field] = "is required"
		return
	}
	if addr, err := mail.ParseAddress(value); err != nil || addr.Address != value {
		f[field] = "must be a valid email address"
	}
}

func (f fieldErrors) positive(field string, value int64) {
	if value <= 0 {
		f[field] = "must be a positive id"
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	details := make(map[string]any, len(f))
	for k, v := range f {
		details[k] = v
	}
	return apperrors.NewValidationError("invalid input", details)
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
