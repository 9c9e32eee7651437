package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCategoryPatch_Apply(t *testing.T) {
	original := Category{ID: 3, Name: "Hardware", Description: strPtr("printers")}

	updated := CategoryPatch{Description: strPtr("printers and scanners")}.Apply(original)

	assert.Equal(t, "Hardware", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "printers and scanners", *updated.Description)
	assert.Equal(t, "printers", *original.Description, "original must not be mutated")
}

func TestClientPatch_ApplyKeepsAbsentFields(t *testing.T) {
	original := Client{ID: 1, Name: "Alpha", Company: strPtr("Alpha Inc"), ContactEmail: "it@alpha.test", UserID: 4}
	userID := int64(9)

	updated := ClientPatch{UserID: &userID}.Apply(original)

	assert.Equal(t, original.Name, updated.Name)
	assert.Equal(t, original.ContactEmail, updated.ContactEmail)
	assert.Equal(t, int64(9), updated.UserID)
	assert.Equal(t, int64(4), original.UserID)
}

func TestTechnicianPatch_ApplyAvailability(t *testing.T) {
	original := Technician{ID: 2, Name: "Hardware tech", Available: true, UserID: 2}
	off := false

	updated := TechnicianPatch{Available: &off}.Apply(original)

	assert.False(t, updated.Available)
	assert.True(t, original.Available)
	assert.Equal(t, original.Name, updated.Name)
}

func TestUserPatch_Apply(t *testing.T) {
	original := User{ID: 1, Name: "Admin", Email: "admin@helpdesk.test", PasswordHash: "h1", Role: RoleAdmin}
	role := RoleTechnician

	updated := UserPatch{Role: &role, PasswordHash: strPtr("h2")}.Apply(original)

	assert.Equal(t, RoleTechnician, updated.Role)
	assert.Equal(t, "h2", updated.PasswordHash)
	assert.Equal(t, original.Email, updated.Email)
	assert.Equal(t, RoleAdmin, original.Role)
}
