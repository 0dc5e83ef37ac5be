package model

import "time"

// Role is the closed set of helpdesk roles.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAgent  Role = "agent"
	RoleClient Role = "client"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleClient:
		return true
	}
	return false
}

// Capability names a guarded operation.
type Capability string

const (
	CapabilityNotifyUser Capability = "notify:user"
	CapabilityNotifyRole Capability = "notify:role"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin:  {CapabilityNotifyUser, CapabilityNotifyRole},
	RoleAgent:  {CapabilityNotifyUser},
	RoleClient: {},
}

// HasCapability checks whether the role is allowed to perform the
// guarded operation.
func (r Role) HasCapability(cap Capability) bool {
	for _, c := range roleCapabilities[r] {
		if c == cap {
			return true
		}
	}
	return false
}

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
