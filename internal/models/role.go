package models

import "gorm.io/gorm"

// RoleName is the closed set of roles known to the system.
type RoleName string

const (
	RoleAdmin    RoleName = "Admin"
	RoleManager  RoleName = "Manager"
	RoleStaff    RoleName = "Staff"
	RoleCustomer RoleName = "Customer"
)

// AllRoles lists every recognized role, in seed order.
var AllRoles = []RoleName{RoleAdmin, RoleManager, RoleStaff, RoleCustomer}

// Valid reports whether r is one of the recognized roles.
func (r RoleName) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff, RoleCustomer:
		return true
	}
	return false
}

// CanViewAllOrders reports whether the role may list and read orders owned
// by other users. Customers only see their own.
func (r RoleName) CanViewAllOrders() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleStaff
}

// CanTransitionOrders reports whether the role may move orders through the
// status state machine.
func (r RoleName) CanTransitionOrders() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleStaff
}

// CanManageCatalog reports whether the role may create, update or delete
// products and categories.
func (r RoleName) CanManageCatalog() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleStaff
}

// Role is a persisted role row. Users reference it by ID.
type Role struct {
	ID         string   `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name       RoleName `json:"name" gorm:"uniqueIndex;type:varchar(50)"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Identity is the authenticated caller as seen by services: just enough to
// scope queries and gate transitions.
type Identity struct {
	UserID string   `json:"user_id"`
	Name   string   `json:"name"`
	Role   RoleName `json:"role"`
}
