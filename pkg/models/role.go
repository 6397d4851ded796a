package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Capabilities a role can grant.
const (
	// CapabilityCanMarkReturned gates loan management and every catalog write.
	CapabilityCanMarkReturned = "can_mark_returned"
	CapabilityCanManageUsers  = "can_manage_users"
)

// Predefined role names.
const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
	RolePatron    = "patron"
)

type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r" tstype:"-"`

	ID          int           `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Name        string        `bun:",nullzero" json:"name"`
	IsSystem    bool          `json:"is_system"`
	Permissions []*Permission `bun:"rel:has-many,join:id=role_id" json:"permissions,omitempty" tstype:"Permission[]"`
}

type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:p" tstype:"-"`

	ID         int    `bun:",pk,nullzero" json:"id"`
	RoleID     int    `json:"role_id"`
	Capability string `json:"capability"`
}

// HasCapability checks if the role grants the named capability.
func (r *Role) HasCapability(capability string) bool {
	for _, p := range r.Permissions {
		if p.Capability == capability {
			return true
		}
	}
	return false
}
