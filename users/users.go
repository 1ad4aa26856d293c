// Package users models the signed-in dashboard user.
package users

import (
	"strings"

	"github.com/jrsteele09/loghealer-client/internal/utils"
)

// RoleType is a role granted by the identity provider.
type RoleType string

const (
	RoleSuperAdmin RoleType = "SUPER_ADMIN" // Sees every project and the admin views
)

// User is the identity returned by the user-info endpoint. It lives in
// memory only and is dropped whenever the session is cleared.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email,omitempty"`
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	Roles     []RoleType `json:"roles"`
}

// FromClaims maps a user-info document onto a User. OIDC claim names win
// over the legacy ones: sub over id, given_name over firstName, family_name
// over lastName. Missing roles become an empty list.
func FromClaims(claims map[string]any) *User {
	str := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}

	u := &User{
		ID:        utils.FirstNonEmpty(str("sub"), str("id")),
		Email:     str("email"),
		FirstName: utils.FirstNonEmpty(str("given_name"), str("firstName")),
		LastName:  utils.FirstNonEmpty(str("family_name"), str("lastName")),
		Roles:     []RoleType{},
	}

	switch roles := claims["roles"].(type) {
	case []string:
		for _, r := range roles {
			u.Roles = append(u.Roles, RoleType(r))
		}
	case []any:
		for _, r := range utils.ToStringSlice(roles) {
			u.Roles = append(u.Roles, RoleType(r))
		}
	}
	return u
}

func (u *User) HasRole(role RoleType) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether the user holds SUPER_ADMIN.
func (u *User) IsPrivileged() bool {
	return u.HasRole(RoleSuperAdmin)
}

// DisplayName is "First Last", falling back to the email then the id.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return utils.FirstNonEmpty(u.Email, u.ID)
}
