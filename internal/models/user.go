package models

import "gorm.io/gorm"

// User represents a user of the store.
type User struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string `json:"name" gorm:"type:varchar(100)" validate:"required,min=3,max=100"`
	Email      string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	RoleID     string `json:"role_id" gorm:"type:varchar(36)"`
	Role       *Role  `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// Identity returns the caller view of this user for request scoping.
// Users without a loaded role are treated as customers.
func (u *User) Identity() Identity {
	role := RoleCustomer
	if u.Role != nil {
		role = u.Role.Name
	}
	return Identity{UserID: u.ID, Name: u.Name, Role: role}
}
