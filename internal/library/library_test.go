package library

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cancionero/internal/songparser"
)

const testIndex = `{
  "1": {"stage": "precatechumenate", "files": {"es": "Resucitó - Cf. 1 Cor 15", "it": "È risorto - 1 Cor 15"}},
  "2": {"stage": "liturgy", "files": {"es": "Abraham - Gn 18"}},
  "10": {"stage": "election", "files": {"es": "Ábreme las puertas - Salmo 117"}},
  "x": {"stage": "liturgy", "files": {"pt": "Aleluia"}}
}`

func newTestLibrary(t *testing.T) (*Library, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"/songs/index.json":                            testIndex,
		"/songs/es/Resucitó - Cf. 1 Cor 15.txt":        "C   G\nS. Resucitó\n**un canto de alegría**\n",
		"/songs/es/Abraham - Gn 18.txt":                "Am\nAbraham",
		"/songs/es/Ábreme las puertas - Salmo 117.txt": "Ábreme",
		"/songs/it/È risorto - 1 Cor 15.txt":           "Do  Sol\nÈ risorto",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
	}
	lib, err := Open(fsys, "/songs")
	require.NoError(t, err)
	return lib, fsys
}

func TestKeysAndLocales(t *testing.T) {
	lib, _ := newTestLibrary(t)
	assert.Equal(t, 4, lib.Len())
	assert.Equal(t, []string{"1", "2", "10", "x"}, lib.Keys())
	assert.Equal(t, []string{"es", "it", "pt"}, lib.Locales())
}

func TestMeta(t *testing.T) {
	lib, _ := newTestLibrary(t)

	meta, err := lib.Meta("1", "es-AR")
	require.NoError(t, err)
	assert.Equal(t, "es", meta.Locale)
	assert.Equal(t, "Resucitó", meta.Title)
	assert.Equal(t, "Cf. 1 Cor 15", meta.Source)
	assert.Equal(t, "precatechumenate", meta.Stage)
	assert.Equal(t, "/songs/es/Resucitó - Cf. 1 Cor 15.txt", meta.Path)

	meta, err = lib.Meta("x", "pt")
	require.NoError(t, err)
	assert.Equal(t, "Aleluia", meta.Title)
	assert.Empty(t, meta.Source)

	_, err = lib.Meta("99", "es")
	assert.ErrorIs(t, err, ErrSongNotFound)
	_, err = lib.Meta("2", "it")
	assert.ErrorIs(t, err, ErrLocaleNotAvailable)
}

func TestSongsAreCollated(t *testing.T) {
	lib, _ := newTestLibrary(t)
	var titles []string
	for _, s := range lib.Songs("es") {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"Abraham", "Ábreme las puertas", "Resucitó"}, titles)
	assert.Len(t, lib.Songs("it"), 1)
	assert.Empty(t, lib.Songs("fr"))
}

func TestLoad(t *testing.T) {
	lib, _ := newTestLibrary(t)

	song, err := lib.Load("1", "es")
	require.NoError(t, err)
	require.Len(t, song.Lines, 3)
	assert.Equal(t, songparser.Notes, song.Lines[0].Kind)
	assert.Equal(t, songparser.NoteSpecialTitle, song.Lines[2].Kind)
	assert.Empty(t, song.Warnings)

	_, err = lib.Load("x", "pt")
	assert.ErrorIs(t, err, ErrSongNotFound, "indexed but missing on disk")
}

func TestLoadAll(t *testing.T) {
	lib, _ := newTestLibrary(t)
	songs, err := lib.LoadAll(context.Background(), "es", 2)
	require.NoError(t, err)
	require.Len(t, songs, 3)
	assert.Equal(t, "Abraham", songs[0].Title)
	assert.Equal(t, "Abraham", songs[0].Lines[1].Raw)
	assert.Equal(t, "Ábreme las puertas", songs[1].Title)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = lib.LoadAll(ctx, "es", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenErrors(t *testing.T) {
	fsys := afero.NewMemMapFs()
	_, err := Open(fsys, "/nowhere")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fsys, "/bad/index.json", []byte("{"), 0o644))
	_, err = Open(fsys, "/bad")
	assert.ErrorIs(t, err, ErrInvalidIndex)
}
