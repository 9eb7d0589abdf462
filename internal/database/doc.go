// Package database provides the catalog storage of the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── logger.go        # gorm logging through zerolog
//	├── songs/           # Song catalog mirrored from the library index
//	└── artifacts/       # Generated songbooks and song documents
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./cancionero.db")
//
//	songsRepo := songs.NewRepository(db.DB)
//	artifactsRepo := artifacts.NewRepository(db.DB)
//
//	list, err := songsRepo.List("es")
//
// The catalog is a read-only mirror of the song library: rows are replaced
// wholesale by a sync and never edited in place.
package database
