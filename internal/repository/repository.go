package repository

import (
	"github.com/prperemyshlev/risk-auth/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User  UserRepository
	Audit AuditRepository
	Ban   BanRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:  NewUserRepository(db),
		Audit: NewAuditRepository(db),
		Ban:   NewBanRepository(db),
	}
}
