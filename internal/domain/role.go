package domain

// Role is the authorization level of a user. There are exactly two roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole converts s into a Role, returning ErrInvalidRole for unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// IsPrivileged reports whether r grants access to every tenant's data,
// realtime sessions, and administrative operations. All privilege checks in
// the application go through this method.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}
