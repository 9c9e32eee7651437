package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestDefaultPolicy_TicketOperations(t *testing.T) {
	cases := []struct {
		op      Operation
		allowed []domain.Role
	}{
		{OpTicketCreate, []domain.Role{domain.RoleClient, domain.RoleAdmin}},
		{OpTicketUpdateStatus, []domain.Role{domain.RoleTechnician, domain.RoleAdmin}},
		{OpTicketListByClient, []domain.Role{domain.RoleClient, domain.RoleAdmin}},
		{OpTicketListByTechnician, []domain.Role{domain.RoleTechnician, domain.RoleAdmin}},
		{OpTicketListAll, []domain.Role{domain.RoleAdmin}},
		{OpTicketGet, []domain.Role{domain.RoleAdmin, domain.RoleTechnician, domain.RoleClient}},
		{OpTicketHistory, []domain.Role{domain.RoleAdmin, domain.RoleTechnician, domain.RoleClient}},
	}

	roles := []domain.Role{domain.RoleAdmin, domain.RoleTechnician, domain.RoleClient}
	for _, tc := range cases {
		for _, role := range roles {
			want := false
			for _, r := range tc.allowed {
				if r == role {
					want = true
				}
			}
			assert.Equalf(t, want, DefaultPolicy.Allows(role, tc.op), "%s as %s", tc.op, role)
		}
	}
}

func TestDefaultPolicy_DirectoryReads(t *testing.T) {
	assert.True(t, DefaultPolicy.Allows(domain.RoleClient, OpClientGet))
	assert.False(t, DefaultPolicy.Allows(domain.RoleTechnician, OpClientGet))
	assert.True(t, DefaultPolicy.Allows(domain.RoleTechnician, OpTechnicianGet))
	assert.False(t, DefaultPolicy.Allows(domain.RoleClient, OpTechnicianGet))
	assert.False(t, DefaultPolicy.Allows(domain.RoleTechnician, OpCategoryList))
	assert.False(t, DefaultPolicy.Allows(domain.RoleClient, OpUserGet))
}

func TestAuthorize_ForbiddenError(t *testing.T) {
	err := DefaultPolicy.Authorize(domain.Principal{UserID: 4, Role: domain.RoleClient}, OpTicketUpdateStatus)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestAuthorize_UnknownOperationDenies(t *testing.T) {
	err := DefaultPolicy.Authorize(domain.Principal{Role: domain.RoleAdmin}, Operation("ticket.delete"))

	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestAuthorize_EmptyRoleDenied(t *testing.T) {
	assert.Error(t, DefaultPolicy.Authorize(domain.Principal{}, OpTicketGet))
}
