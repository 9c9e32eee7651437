package domain

// Role enumerates the account roles known to the help desk.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleTechnician Role = "TECHNICIAN"
	RoleClient     Role = "CLIENT"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTechnician, RoleClient:
		return true
	}
	return false
}

// Principal is the authenticated identity making a request.
type Principal struct {
	UserID int64
	Email  string
	Role   Role
}
