package exporters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrlokans/cancionero/internal/render"
	"github.com/mrlokans/cancionero/internal/songparser"
	"github.com/mrlokans/cancionero/internal/utils"
)

// MarkdownExporter writes one Markdown file per song with the (transposed)
// song text in a fenced block so chords stay aligned over the lyrics.
type MarkdownExporter struct {
	OutputDir string
	resolver  *render.Resolver
	now       func() time.Time
}

func NewMarkdownExporter(outputDir string, resolver *render.Resolver) *MarkdownExporter {
	return &MarkdownExporter{
		OutputDir: outputDir,
		resolver:  resolver,
		now:       time.Now,
	}
}

// GenerateMarkdown renders a resolved song as Markdown with front matter.
func GenerateMarkdown(doc SongDocument, lines []render.RenderLine, generatedAt time.Time) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "---\n")
	fmt.Fprintf(&builder, "key: %s\n", doc.Key)
	fmt.Fprintf(&builder, "title: \"%s\"\n", strings.ReplaceAll(doc.Title, "\"", "\\\""))
	fmt.Fprintf(&builder, "source: \"%s\"\n", strings.ReplaceAll(doc.Source, "\"", "\\\""))
	if doc.Shift != 0 {
		fmt.Fprintf(&builder, "transpose: %d\n", doc.Shift)
	}
	fmt.Fprintf(&builder, "created_at: %s\n", generatedAt.Format("2006-01-02"))
	fmt.Fprintf(&builder, "---\n\n")
	fmt.Fprintf(&builder, "# %s\n\n", doc.Title)
	if doc.Source != "" {
		fmt.Fprintf(&builder, "*%s*\n\n", doc.Source)
	}

	fmt.Fprintf(&builder, "```\n")
	for _, l := range lines {
		switch l.Kind {
		case songparser.NoteSpecialTitle:
			fmt.Fprintf(&builder, "** %s **\n", l.Text())
		default:
			fmt.Fprintf(&builder, "%s\n", strings.TrimRight(l.Text(), " "))
		}
	}
	fmt.Fprintf(&builder, "```\n")

	return builder.String()
}

// Export writes every song of req to OutputDir.
func (exporter *MarkdownExporter) Export(ctx context.Context, req Request) (ExportResult, error) {
	if len(req.Songs) == 0 {
		return ExportResult{}, ErrNoSongs
	}
	if err := os.MkdirAll(exporter.OutputDir, 0o755); err != nil {
		return ExportResult{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	songs, err := ResolveAll(ctx, exporter.resolver, req.Songs, 0)
	if err != nil {
		return ExportResult{}, err
	}

	result := ExportResult{}
	generatedAt := exporter.now()
	for i, doc := range req.Songs {
		name := utils.SanitizeFilename(doc.Title+req.Options.OutputNameSuffix) + ".md"
		path := filepath.Join(exporter.OutputDir, name)
		content := GenerateMarkdown(doc, songs[i].Lines, generatedAt)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return result, fmt.Errorf("failed to write %s: %w", path, err)
		}
		result.SongsProcessed++
		result.Handle.Bytes += int64(len(content))
	}
	result.Handle.Path = exporter.OutputDir
	return result, nil
}
