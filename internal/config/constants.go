package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./cancionero.db"

	// DefaultSongsDir holds index.json and one directory per locale
	DefaultSongsDir = "./songs"

	// DefaultOutputDir receives generated songbooks
	DefaultOutputDir = "./output"

	// DefaultCacheDir keeps rendered single-song PDFs between requests
	DefaultCacheDir = "./output/.cache"
)

// Default page geometry, in points. Pages are square.
const (
	DefaultPageSize = 598
	DefaultMargin   = 25
	DefaultColumns  = 2
)
