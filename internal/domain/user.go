package domain

import "time"

// User is an account able to authenticate against the help desk.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserPatch carries the optional fields of a user update. PasswordHash is
// filled by the service after hashing the plaintext.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *Role
}

// Apply returns a copy of u with every provided field replaced.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	return u
}
