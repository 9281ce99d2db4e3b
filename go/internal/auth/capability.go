package auth

import "fmt"

// Role scopes what a capability may do.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleTeam  Role = "TEAM"
)

// ParseRole converts a stored role name.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleTeam:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Capability proves an authenticated caller's role.
// For teams SubjectID is the team ID, for admins it is the admin username.
type Capability struct {
	Role      Role   `json:"role"`
	SubjectID string `json:"subject_id"`
}

// String returns "admin" or "team:<id>".
func (c Capability) String() string {
	if c.Role == RoleAdmin {
		return "admin"
	}
	return "team:" + c.SubjectID
}

// Authorize re-verifies the capability's role. It is called on every privileged
// operation, including for the seeded admin account.
func Authorize(c *Capability, role Role) error {
	if c == nil || c.Role != role {
		return ErrUnauthorized
	}
	return nil
}

// AuthorizeTeam admits admins and the team that owns teamID.
func AuthorizeTeam(c *Capability, teamID string) error {
	if c == nil {
		return ErrUnauthorized
	}
	if c.Role == RoleAdmin {
		return nil
	}
	if c.Role == RoleTeam && c.SubjectID == teamID {
		return nil
	}
	return ErrUnauthorized
}
