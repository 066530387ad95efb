package enums

import "fmt"

// Role is the access role carried in JWT claims.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCreator Role = "creator"
)

var validRoles = []Role{
	RoleAdmin,
	RoleCreator,
}

func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if r == candidate {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
