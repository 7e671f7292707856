package identity

import "errors"

var ErrInvalidRole = errors.New("invalid role")

// Role is the caller's access level inside a tenant. Bot integrations and
// storefront channels authenticate as RoleChannel; business owners and
// their staff use the admin surface.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RoleChannel Role = "channel"
)

func NewRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleStaff, RoleChannel:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) String() string {
	return string(r)
}

// CanManage reports whether the role may run staff operations such as
// check-in, completion and admin cancellation.
func (r Role) CanManage() bool {
	return r == RoleAdmin || r == RoleStaff
}
