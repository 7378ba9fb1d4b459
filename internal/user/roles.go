package user

// Role is the access-control level of an account. Roles form a strict
// total order: user < clerk < manager < admin.
type Role string

const (
	RoleUser    Role = "user"
	RoleClerk   Role = "clerk"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

var roleLevels = map[Role]int{
	RoleUser:    0,
	RoleClerk:   1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// ParseRole maps a stored role value onto a known Role. Unknown values
// are rejected so stale or hand-edited rows fail closed.
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	_, ok := roleLevels[role]
	return role, ok
}

// AtLeast reports whether r ranks at or above minimum. Unknown roles
// never pass.
func (r Role) AtLeast(minimum Role) bool {
	level, ok := roleLevels[r]
	if !ok {
		return false
	}
	min, ok := roleLevels[minimum]
	if !ok {
		return false
	}
	return level >= min
}
