package domain

// Client is the customer profile attached to a user account.
type Client struct {
	ID           int64
	Name         string
	Company      *string
	ContactEmail string
	UserID       int64
}

// ClientPatch carries the optional fields of a client update.
type ClientPatch struct {
	Name         *string
	Company      *string
	ContactEmail *string
	UserID       *int64
}

// Apply returns a copy of c with every provided field replaced.
func (p ClientPatch) Apply(c Client) Client {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Company != nil {
		company := *p.Company
		c.Company = &company
	}
	if p.ContactEmail != nil {
		c.ContactEmail = *p.ContactEmail
	}
	if p.UserID != nil {
		c.UserID = *p.UserID
	}
	return c
}
