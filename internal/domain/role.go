package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of platform roles a principal can act under.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleInstructor Role = "INSTRUCTOR"
)

// Roles lists every role in slot lookup order.
func Roles() []Role {
	return []Role{RoleStudent, RoleInstructor}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole normalizes user input into a Role.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("invalid role %q: must be %s or %s", raw, RoleStudent, RoleInstructor)
	}
	return role, nil
}
