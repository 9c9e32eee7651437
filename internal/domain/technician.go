package domain

// MaxInProgressPerTechnician caps the tickets a technician may hold IN_PROGRESS at once.
const MaxInProgressPerTechnician = 5

// Technician is the support-engineer profile attached to a user account.
type Technician struct {
	ID        int64
	Name      string
	Specialty *string
	Available bool
	UserID    int64
}

// TechnicianPatch carries the optional fields of a technician update.
type TechnicianPatch struct {
	Name      *string
	Specialty *string
	Available *bool
	UserID    *int64
}

// Apply returns a copy of t with every provided field replaced.
func (p TechnicianPatch) Apply(t Technician) Technician {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Specialty != nil {
		specialty := *p.Specialty
		t.Specialty = &specialty
	}
	if p.Available != nil {
		t.Available = *p.Available
	}
	if p.UserID != nil {
		t.UserID = *p.UserID
	}
	return t
}
