// Package artifacts provides database operations for generated documents.
package artifacts

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/cancionero/internal/entities"
)

var ErrNotFound = errors.New("artifact not found")

// Repository handles all artifact database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new artifact repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save stores a, assigning its ID when empty.
func (r *Repository) Save(a *entities.Artifact) error {
	if err := r.db.Create(a).Error; err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}
	return nil
}

// Get returns the artifact with id.
func (r *Repository) Get(id string) (*entities.Artifact, error) {
	var a entities.Artifact
	err := r.db.Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns the newest artifacts first. limit <= 0 returns all.
func (r *Repository) List(limit int) ([]entities.Artifact, error) {
	var out []entities.Artifact
	query := r.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&out).Error
	return out, err
}

// DeleteOlderThan removes artifact rows created before cutoff.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&entities.Artifact{})
	return result.RowsAffected, result.Error
}
