package enums

import "fmt"

// UserRole is the account role carried in access tokens.
type UserRole string

const (
	UserRoleDoctor   UserRole = "doctor"
	UserRoleStaff    UserRole = "staff"
	UserRoleProvider UserRole = "provider"
	UserRoleAdmin    UserRole = "admin"
	UserRolePatient  UserRole = "patient"
)

var validUserRoles = []UserRole{
	UserRoleDoctor,
	UserRoleStaff,
	UserRoleProvider,
	UserRoleAdmin,
	UserRolePatient,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ActsForPractice reports whether the role bills on behalf of a linked practice.
func (r UserRole) ActsForPractice() bool {
	return r == UserRoleStaff || r == UserRoleProvider
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
