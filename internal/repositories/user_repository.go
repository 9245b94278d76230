package repositories

import "oms/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
}

// RoleRepository defines the interface for role lookups and seeding.
type RoleRepository interface {
	GetByName(name models.RoleName) (*models.Role, error)
	Seed() error
}
