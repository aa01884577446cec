package domain

// Role is a strictly ordered membership level. Comparisons use the
// numeric level directly; behaviour lives in free functions below rather
// than on the type.
type Role int

const (
	RoleViewer  Role = 1
	RoleMember  Role = 2
	RoleManager Role = 3
	RoleAdmin   Role = 4
	RoleOwner   Role = 5
)

var roleNames = map[Role]string{
	RoleViewer:  "VIEWER",
	RoleMember:  "MEMBER",
	RoleManager: "MANAGER",
	RoleAdmin:   "ADMIN",
	RoleOwner:   "OWNER",
}

func (r Role) String() string { return roleNames[r] }

// Valid reports whether r is one of the five defined levels.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole maps a wire name to a Role. The zero Role and false are
// returned for unknown names.
func ParseRole(s string) (Role, bool) {
	for r, name := range roleNames {
		if name == s {
			return r, true
		}
	}
	return 0, false
}

// IsOwner, IsAdmin and IsManager are the derived hierarchy predicates.
// Each is additionally gated by the membership's active flag where it
// guards an operation (see CanManageMembers / CanManageTenant).
func IsOwner(r Role) bool   { return r == RoleOwner }
func IsAdmin(r Role) bool   { return r >= RoleAdmin }
func IsManager(r Role) bool { return r >= RoleManager }

// CanManageMembers gates member invite/remove/role-change operations.
func CanManageMembers(m Membership) bool { return m.Active && IsAdmin(m.Role) }

// CanManageTenant gates tenant update/delete/settings operations.
func CanManageTenant(m Membership) bool { return m.Active && IsOwner(m.Role) }

// Promote returns the new role if target strictly exceeds current,
// otherwise the current role unchanged. The bool reports whether a
// change happened.
func Promote(current, target Role) (Role, bool) {
	if target > current {
		return target, true
	}
	return current, false
}

// Demote lowers the role only when target is strictly below current and
// the current role is not OWNER. Owners cannot be demoted via this path.
func Demote(current, target Role) (Role, bool) {
	if current == RoleOwner {
		return current, false
	}
	if target < current {
		return target, true
	}
	return current, false
}
