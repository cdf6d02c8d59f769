package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownRole is returned when a role name is not one of the enumerated roles.
var ErrUnknownRole = errors.New("unknown role")

// Role is a capability granted to an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// scopePrefix marks a role inside a token scope string.
const scopePrefix = "ROLE_"

// ParseRole returns the Role named by s (case-insensitive). Unknown names fail with ErrUnknownRole.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Roles is a sorted, duplicate-free set of roles.
type Roles []Role

// NewRoles builds a normalized set from rs.
func NewRoles(rs ...Role) Roles {
	seen := make(map[Role]struct{}, len(rs))
	out := make(Roles, 0, len(rs))
	for _, r := range rs {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Has reports whether role is in the set.
func (rs Roles) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the set grants the admin role.
func (rs Roles) IsAdmin() bool { return rs.Has(RoleAdmin) }

// Names returns the bare role names.
func (rs Roles) Names() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// Scope renders the set as the token scope claim: space-joined, each prefixed with ROLE_.
func (rs Roles) Scope() string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = scopePrefix + string(r)
	}
	return strings.Join(parts, " ")
}

// ParseScope is the inverse of Scope. Every entry must carry the ROLE_ prefix and name a known role.
func ParseScope(scope string) (Roles, error) {
	fields := strings.Fields(scope)
	rs := make([]Role, 0, len(fields))
	for _, f := range fields {
		name, ok := strings.CutPrefix(f, scopePrefix)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRole, f)
		}
		r, err := ParseRole(name)
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return NewRoles(rs...), nil
}

// Value stores the set as space-separated role names.
func (rs Roles) Value() (driver.Value, error) {
	return strings.Join(rs.Names(), " "), nil
}

// Scan reads a space-separated role list written by Value.
func (rs *Roles) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*rs = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("roles: cannot scan %T", src)
	}
	fields := strings.Fields(s)
	out := make([]Role, 0, len(fields))
	for _, f := range fields {
		r, err := ParseRole(f)
		if err != nil {
			return err
		}
		out = append(out, r)
	}
	*rs = NewRoles(out...)
	return nil
}
