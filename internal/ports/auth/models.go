package auth

import "strings"

// Role define el rol del usuario autenticado.
type Role string

const (
	RoleUser   Role = "user"
	RoleRescue Role = "rescue"
	RoleAdmin  Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleRescue:
		return RoleRescue, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Claims representa la información extraída del token.
type Claims struct {
	UserID   string
	Email    string
	Role     Role
	RescueID string // solo para rol rescue
}

func (c Claims) Authenticated() bool {
	return strings.TrimSpace(c.UserID) != ""
}

func (c Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// IsRescueStaff indica si el usuario es staff de la rescue indicada.
func (c Claims) IsRescueStaff(rescueID string) bool {
	return c.Role == RoleRescue && c.RescueID != "" && c.RescueID == rescueID
}

// CanManageRescue: admin o staff de esa rescue.
func (c Claims) CanManageRescue(rescueID string) bool {
	return c.IsAdmin() || c.IsRescueStaff(rescueID)
}
