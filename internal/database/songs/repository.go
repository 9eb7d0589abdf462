// Package songs provides database operations for the song catalog.
//
// # Usage
//
//	repo := songs.NewRepository(db)
//	err := repo.Upsert(rows)
//	list, err := repo.List("es")
package songs

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/cancionero/internal/entities"
)

var ErrNotFound = errors.New("song not in catalog")

// Repository handles all song catalog operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new song repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts songs, updating rows that share a key and locale.
func (r *Repository) Upsert(songs []entities.Song) error {
	if len(songs) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}, {Name: "locale"}},
		DoUpdates: clause.AssignmentColumns([]string{"stage", "title", "source", "file_name", "lines", "chords", "bytes", "updated_at"}),
	}).CreateInBatches(songs, 100).Error
	if err != nil {
		return fmt.Errorf("failed to upsert songs: %w", err)
	}
	return nil
}

// Prune deletes the songs of locale whose key is not in keep, returning the
// number of rows removed.
func (r *Repository) Prune(locale string, keep []string) (int64, error) {
	query := r.db.Where("locale = ?", locale)
	if len(keep) > 0 {
		query = query.Where("key NOT IN ?", keep)
	}
	result := query.Delete(&entities.Song{})
	return result.RowsAffected, result.Error
}

// List returns the songs of locale ordered by title. An empty locale lists
// every locale.
func (r *Repository) List(locale string) ([]entities.Song, error) {
	var songs []entities.Song
	query := r.db.Order("title ASC").Order("locale ASC")
	if locale != "" {
		query = query.Where("locale = ?", locale)
	}
	err := query.Find(&songs).Error
	return songs, err
}

// Get returns the song key in locale.
func (r *Repository) Get(key, locale string) (*entities.Song, error) {
	var song entities.Song
	err := r.db.Where("key = ? AND locale = ?", key, locale).First(&song).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, locale, key)
	}
	if err != nil {
		return nil, err
	}
	return &song, nil
}

// CountByStage counts the songs of locale per liturgical stage.
func (r *Repository) CountByStage(locale string) (map[string]int64, error) {
	var rows []struct {
		Stage string
		Count int64
	}
	err := r.db.Model(&entities.Song{}).
		Select("stage, COUNT(*) AS count").
		Where("locale = ?", locale).
		Group("stage").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Stage] = row.Count
	}
	return out, nil
}
