package entities

import "strings"

// Role is the closed set of actor roles.
type Role string

const (
	RoleClient   Role = "CLIENT"
	RoleProvider Role = "PROVIDER"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole accepts the canonical names plus the legacy spanish ones
// (CLIENTE, PROVEEDOR) and an optional ROLE_ prefix.
func ParseRole(raw string) (Role, bool) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	v = strings.TrimPrefix(v, "ROLE_")
	switch v {
	case "CLIENT", "CLIENTE":
		return RoleClient, true
	case "PROVIDER", "PROVEEDOR":
		return RoleProvider, true
	case "ADMIN":
		return RoleAdmin, true
	}
	return "", false
}

// User is the identity record consumed from the users table.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Actor is the authenticated caller of an operation. The zero value is
// unauthenticated.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) Authenticated() bool {
	if strings.TrimSpace(a.ID) == "" {
		return false
	}
	_, ok := ParseRole(string(a.Role))
	return ok
}

// SystemActor is used for transitions driven by verified gateway events.
var SystemActor = Actor{ID: "system", Role: RoleAdmin}
