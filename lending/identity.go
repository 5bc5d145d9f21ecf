package lending

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrUnknownRole is returned when a role string cannot be parsed.
var ErrUnknownRole = errors.New("unknown role")

// Role is the coarse access role resolved by the authorization boundary.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// ParseRole converts a string into a Role, case-insensitively.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	if !role.IsValid() {
		return "", ErrUnknownRole
	}

	return role, nil
}

// Identity is the authenticated caller of an engine operation.
//
// It is resolved by the authorization gate before the engine is invoked and
// threaded explicitly into every call - the engine performs no credential
// checks and keeps no ambient request context.
type Identity struct {
	BorrowerID uuid.UUID
	Role       Role
}

// BuildIdentity creates an Identity from a borrower id and role.
func BuildIdentity(borrowerID uuid.UUID, role Role) Identity {
	return Identity{
		BorrowerID: borrowerID,
		Role:       role,
	}
}
