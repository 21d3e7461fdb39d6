package database

import (
	"hanyang/internal/database/repositories"
	"hanyang/pkg/logger"
)

// Repository provides access to all database repositories
type Repository struct {
	Games  *repositories.GameRepository
	logger *logger.ColoredLogger
}

// NewRepository creates a new repository collection
func NewRepository(db *DB) *Repository {
	return &Repository{
		Games:  repositories.NewGameRepository(db.DB),
		logger: logger.CreateAILogger("Repository", logger.ColorWhite),
	}
}

// Close closes all repository connections
func (r *Repository) Close() error {
	r.logger.Debug("Closing repository connections")
	// Repositories share the DB connection; nothing to release here.
	return nil
}

// Health checks the health of all repositories
func (r *Repository) Health() error {
	return nil
}
