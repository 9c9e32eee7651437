// Package authz holds the role table that decides which principals may run
// each operation. Services evaluate it once per call.
package authz

import (
	"fmt"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Operation names a guarded action.
type Operation string

const (
	OpTicketCreate           Operation = "ticket.create"
	OpTicketUpdateStatus     Operation = "ticket.update_status"
	OpTicketListByClient     Operation = "ticket.list_by_client"
	OpTicketListByTechnician Operation = "ticket.list_by_technician"
	OpTicketListAll          Operation = "ticket.list_all"
	OpTicketGet              Operation = "ticket.get"
	OpTicketHistory          Operation = "ticket.history"

	OpCategoryCreate Operation = "category.create"
	OpCategoryList   Operation = "category.list"
	OpCategoryGet    Operation = "category.get"
	OpCategoryUpdate Operation = "category.update"
	OpCategoryDelete Operation = "category.delete"

	OpClientCreate Operation = "client.create"
	OpClientList   Operation = "client.list"
	OpClientGet    Operation = "client.get"
	OpClientUpdate Operation = "client.update"
	OpClientDelete Operation = "client.delete"

	OpTechnicianCreate Operation = "technician.create"
	OpTechnicianList   Operation = "technician.list"
	OpTechnicianGet    Operation = "technician.get"
	OpTechnicianUpdate Operation = "technician.update"
	OpTechnicianDelete Operation = "technician.delete"

	OpUserCreate Operation = "user.create"
	OpUserList   Operation = "user.list"
	OpUserGet    Operation = "user.get"
	OpUserUpdate Operation = "user.update"
	OpUserDelete Operation = "user.delete"
)

// Policy maps operations to the roles allowed to run them.
type Policy map[Operation][]domain.Role

var (
	adminOnly = []domain.Role{domain.RoleAdmin}
	anyRole   = []domain.Role{domain.RoleAdmin, domain.RoleTechnician, domain.RoleClient}
)

// DefaultPolicy is the role table the service runs with.
var DefaultPolicy = Policy{
	OpTicketCreate:           {domain.RoleClient, domain.RoleAdmin},
	OpTicketUpdateStatus:     {domain.RoleTechnician, domain.RoleAdmin},
	OpTicketListByClient:     {domain.RoleClient, domain.RoleAdmin},
	OpTicketListByTechnician: {domain.RoleTechnician, domain.RoleAdmin},
	OpTicketListAll:          adminOnly,
	OpTicketGet:              anyRole,
	OpTicketHistory:          anyRole,

	OpCategoryCreate: adminOnly,
	OpCategoryList:   adminOnly,
	OpCategoryGet:    adminOnly,
	OpCategoryUpdate: adminOnly,
	OpCategoryDelete: adminOnly,

	OpClientCreate: adminOnly,
	OpClientList:   adminOnly,
	OpClientGet:    {domain.RoleAdmin, domain.RoleClient},
	OpClientUpdate: adminOnly,
	OpClientDelete: adminOnly,

	OpTechnicianCreate: adminOnly,
	OpTechnicianList:   adminOnly,
	OpTechnicianGet:    {domain.RoleAdmin, domain.RoleTechnician},
	OpTechnicianUpdate: adminOnly,
	OpTechnicianDelete: adminOnly,

	OpUserCreate: adminOnly,
	OpUserList:   adminOnly,
	OpUserGet:    adminOnly,
	OpUserUpdate: adminOnly,
	OpUserDelete: adminOnly,
}

// Authorize returns a FORBIDDEN error unless the principal's role is listed
// for op. Operations missing from the table deny everyone.
func (p Policy) Authorize(principal domain.Principal, op Operation) error {
	for _, role := range p[op] {
		if role == principal.Role {
			return nil
		}
	}
	return apperrors.NewForbidden(fmt.Sprintf("role %q may not perform %s", principal.Role, op))
}

// Allows reports whether role is listed for op.
func (p Policy) Allows(role domain.Role, op Operation) bool {
	return p.Authorize(domain.Principal{Role: role}, op) == nil
}
