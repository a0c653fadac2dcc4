package user

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// Role is the closed set of privileges an account can hold.
type Role uint8

const (
	RoleUser Role = iota
	RoleGuide
	RoleLeadGuide
	RoleAdmin

	roleCount
)

var ErrUnknownRole = errors.New("unknown role")

var roleNames = [roleCount]string{
	RoleUser:      "user",
	RoleGuide:     "guide",
	RoleLeadGuide: "lead-guide",
	RoleAdmin:     "admin",
}

// Roles returns every defined role in privilege order.
func Roles() []Role {
	out := make([]Role, 0, roleCount)
	for r := RoleUser; r < roleCount; r++ {
		out = append(out, r)
	}
	return out
}

func (r Role) String() string {
	if r.Valid() {
		return roleNames[r]
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

func (r Role) Valid() bool {
	return r < roleCount
}

// ParseRole converts the wire name of a role back to a Role.
func ParseRole(s string) (Role, error) {
	for i, name := range roleNames {
		if name == s {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}
	return []byte(roleNames[r]), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the role by name so the column stays readable.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}
	return roleNames[r], nil
}

func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	default:
		return fmt.Errorf("user: cannot scan %T into Role", src)
	}
}

// RoleSet is an allow-set of roles, fixed when a route is registered.
type RoleSet uint32

func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		if r.Valid() {
			s |= 1 << r
		}
	}
	return s
}

func (s RoleSet) Contains(r Role) bool {
	return r.Valid() && s&(1<<r) != 0
}

func (s RoleSet) String() string {
	out := "["
	first := true
	for _, r := range Roles() {
		if !s.Contains(r) {
			continue
		}
		if !first {
			out += " "
		}
		out += r.String()
		first = false
	}
	return out + "]"
}
