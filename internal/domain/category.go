package domain

// Category classifies tickets (hardware incident, software incident, request...).
type Category struct {
	ID          int64
	Name        string
	Description *string
}

// CategoryPatch carries the optional fields of a category update.
type CategoryPatch struct {
	Name        *string
	Description *string
}

// Apply returns a copy of c with every provided field replaced.
func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		description := *p.Description
		c.Description = &description
	}
	return c
}
