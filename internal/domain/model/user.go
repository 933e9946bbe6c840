package model

import (
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleUser     = "user"
	RoleMember   = "member"
	RoleFarmer   = "farmer"
	RoleCustomer = "customer"
)

// IsSelectableRole reports whether a role may be chosen through the
// one-time role selection call. Admin and member are assigned out of band.
func IsSelectableRole(role string) bool {
	return role == RoleFarmer || role == RoleCustomer
}

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Name           string    `json:"name,omitempty"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DisplayName is the name snapshotted onto crops and orders.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Username != "" {
		return u.Username
	}
	return "Anonymous"
}
