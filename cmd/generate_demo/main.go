// Command generate_demo writes a small demo song library and, optionally,
// syncs it into a catalog database.
// Usage: go run ./cmd/generate_demo [-dir ./demo/songs] [-db ./demo/demo.db]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/cancionero/internal/config"
	"github.com/mrlokans/cancionero/internal/database"
	"github.com/mrlokans/cancionero/internal/database/songs"
	"github.com/mrlokans/cancionero/internal/library"
	"github.com/mrlokans/cancionero/internal/logging"
	"github.com/mrlokans/cancionero/internal/services"
	"github.com/mrlokans/cancionero/internal/utils"
)

const defaultDemoDir = "./demo/songs"

// demoSong is one entry of the demo index with its text per locale.
type demoSong struct {
	Key   string
	Stage string
	Files map[string]demoFile
}

type demoFile struct {
	Name string // "Title - Source"
	Text string
}

func main() {
	dir := flag.String("dir", defaultDemoDir, "directory to write the demo library to")
	dbPath := flag.String("db", "", "catalog database to sync the demo library into (optional)")
	flag.Parse()

	logging.SetupLogger(1, nil)
	log.Info().Str("dir", *dir).Msg("Generating demo song library")

	// Start fresh
	if err := os.RemoveAll(*dir); err != nil {
		log.Fatal().Err(err).Msg("Failed to remove existing demo library")
	}

	index := map[string]library.IndexEntry{}
	for _, song := range demoSongs() {
		entry := library.IndexEntry{Stage: song.Stage, Files: map[string]string{}}
		for locale, f := range song.Files {
			path := filepath.Join(*dir, locale, f.Name+utils.SongFileExtension)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				log.Fatal().Err(err).Msg("Failed to create locale directory")
			}
			if err := os.WriteFile(path, []byte(f.Text), 0o644); err != nil {
				log.Fatal().Err(err).Str("path", path).Msg("Failed to write song")
			}
			entry.Files[locale] = f.Name
		}
		index[song.Key] = entry
		log.Info().Str("key", song.Key).Int("locales", len(entry.Files)).Msg("Saved song")
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode index")
	}
	if err := os.WriteFile(filepath.Join(*dir, library.IndexFile), data, 0o644); err != nil {
		log.Fatal().Err(err).Msg("Failed to write index")
	}

	if *dbPath != "" {
		syncCatalog(*dir, *dbPath)
	}

	log.Info().Int("songs", len(index)).Msg("Demo library generated successfully")
}

// syncCatalog mirrors the freshly written library into a new database.
func syncCatalog(dir, dbPath string) {
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatal().Err(err).Msg("Failed to remove existing demo database")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create database directory")
	}

	lib, err := library.OpenDir(dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open demo library")
	}
	db, err := database.NewDatabase(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create database")
	}
	defer db.Close()

	render := config.NewConfig().Render
	svc, err := services.NewSongbookService(lib, render, filepath.Dir(dbPath), services.WithCatalog(songs.NewRepository(db.DB)))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create songbook service")
	}
	result, err := svc.SyncCatalog(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sync catalog")
	}
	for locale, n := range result.Songs {
		log.Info().Str("locale", locale).Int("songs", n).Msg("Catalog synced")
	}
}

func demoSongs() []demoSong {
	return []demoSong{
		{
			Key:   "1",
			Stage: "precatechumenate",
			Files: map[string]demoFile{
				"es": {Name: "Alabad al Señor - Salmo 117", Text: `Mi-         La       Si7
S. Alabad al Señor, todas las naciones,
Mi-          La     Si7
A. aclamadlo, todos los pueblos.

Do              Si7
S. Firme es su misericordia con nosotros,
   Mi-
A. su fidelidad dura por siempre. (bis)
`},
				"en": {Name: "Praise the Lord - Psalm 117", Text: `Em          A        B7
C. Praise the Lord, all you nations,
Em           A      B7
A. glorify him, all you peoples.

C               B7
C. For steadfast is his kindness toward us,
   Em
A. and his faithfulness endures forever.
`},
				"it": {Name: "Lodate il Signore - Salmo 117", Text: `Mi-         La       Si7
C. Lodate il Signore, popoli tutti,
Mi-          La     Si7
A. voi tutte, nazioni, dategli gloria.
`},
			},
		},
		{
			Key:   "2",
			Stage: "catechumenate",
			Files: map[string]demoFile{
				"es": {Name: "El Señor es mi pastor - Salmo 23", Text: `**Antífona**
La-          Re-
A. El Señor es mi pastor,
Mi7                     La-
   nada me falta.

La-              Sol           Fa
S. En verdes praderas me hace recostar,
                Mi7
   me conduce hacia fuentes tranquilas.
[Se repite la antífona]
`},
				"pt": {Name: "O Senhor é meu pastor - Salmo 23", Text: `Lá-          Ré-
A. O Senhor é meu pastor,
Mi7                     Lá-
   nada me faltará.
`},
			},
		},
		{
			Key:   "3",
			Stage: "election",
			Files: map[string]demoFile{
				"es": {Name: "Cantad al Señor - Salmo 96", Text: `Re              La
P. Cantad al Señor un cántico nuevo,
Si-                Fa#-
   cantad al Señor, toda la tierra.
Sol            La        Re
A. Cantad al Señor, bendecid su nombre.
`},
				"ca": {Name: "Canteu al Senyor - Salm 96", Text: `Re              La
P. Canteu al Senyor un càntic nou,
Si-                Fa#-
   canteu al Senyor, tota la terra.
`},
				"fr": {Name: "Chantez au Seigneur - Psaume 96", Text: `Ré              La
C. Chantez au Seigneur un chant nouveau,
Si-                Fa#-
A. chantez au Seigneur, terre entière.
`},
			},
		},
		{
			Key:   "4",
			Stage: "liturgy",
			Files: map[string]demoFile{
				"es": {Name: "Aleluya", Text: `Do   Fa   Do   Sol7
A. Aleluya, aleluya, aleluya. (bis)
`},
				"en": {Name: "Alleluia", Text: `C    F    C    G7
A. Alleluia, alleluia, alleluia.
`},
			},
		},
	}
}
