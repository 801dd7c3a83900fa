package session

import (
	"encoding/json"
	"strings"

	"github.com/trezcool/niva/core"
)

// Roles
const (
	RoleStandardUser Role = "user"
	RoleAdmin        Role = "admin"
)

// Role is the effective privilege of a session. The zero value means "unknown".
type Role string

// ParseRole maps any role string written by the backend or by older clients onto a Role.
// "Admin", "admin", "ADMIN" and "AdminUser" are all admins; anything else, including "", is a standard user.
func ParseRole(s string) Role {
	switch strings.ToLower(core.CleanString(s)) {
	case "admin", "adminuser", "admin_user":
		return RoleAdmin
	default:
		return RoleStandardUser
	}
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

func (r Role) String() string {
	if r == "" {
		return string(RoleStandardUser)
	}
	return string(r)
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || core.CleanString(*s) == "" {
		*r = ""
		return nil
	}
	*r = ParseRole(*s)
	return nil
}

// User is the authenticated user's profile as returned by the backend.
type User struct {
	ID        core.FlexString `json:"id"`
	Email     string          `json:"email"`
	Role      Role            `json:"role,omitempty"`
	FirstName string          `json:"first_name,omitempty"`
	LastName  string          `json:"last_name,omitempty"`
	IsActive  *bool           `json:"is_active,omitempty"`
}

func (u User) DisplayName() string {
	if name := core.CleanString(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Email
}

// Session is a snapshot of the persisted session state.
// Token presence is the sole authority for "is authenticated"; Role, StudentID and Profile are caches.
type Session struct {
	Token     string
	UserID    string
	StudentID string
	Role      Role
	Profile   *User
}

func (s Session) IsAuthenticated() bool { return s.Token != "" }
