package exporters

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/cancionero/internal/render"
)

// ResolvedSong is a song ready for layout.
type ResolvedSong struct {
	Key    string
	Header []render.RenderLine
	Lines  []render.RenderLine
}

// ResolveAll resolves songs concurrently with at most workers goroutines
// (no limit when workers <= 0). The result keeps the order of songs.
func ResolveAll(ctx context.Context, resolver *render.Resolver, songs []SongDocument, workers int) ([]ResolvedSong, error) {
	out := make([]ResolvedSong, len(songs))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, song := range songs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			header, err := resolver.Header(song.Title, song.Source)
			if err != nil {
				return fmt.Errorf("song %s: %w", song.Key, err)
			}
			lines, err := resolver.Song(song.Lines, song.Shift)
			if err != nil {
				return fmt.Errorf("song %s: %w", song.Key, err)
			}
			out[i] = ResolvedSong{Key: song.Key, Header: header, Lines: lines}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
