package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/cancionero/internal/entities"
	"github.com/mrlokans/cancionero/internal/logging"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (creating if needed) the catalog database at dbPath and
// migrates its schema.
func NewDatabase(dbPath string) (*Database, error) {
	log := logging.GetLogger("database")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: NewLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Song{},
		&entities.Artifact{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("Database initialized")

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
