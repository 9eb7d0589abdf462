package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/cancionero/internal/entities"
	"github.com/mrlokans/cancionero/internal/logging"
	"github.com/mrlokans/cancionero/internal/services"
)

// SongbookBuilder builds whole-locale songbooks.
type SongbookBuilder interface {
	BuildSongbook(ctx context.Context, r services.SongbookRequest) (*entities.Artifact, error)
}

// BuildSongbookTask writes every song of a locale to one document.
type BuildSongbookTask struct {
	Locale       string                  `json:"locale"`
	Suffix       string                  `json:"suffix,omitempty"`
	IncludeIndex bool                    `json:"include_index"`
	PageNumbers  bool                    `json:"page_numbers"`
	Format       entities.ArtifactFormat `json:"format,omitempty"`
}

// Config returns the queue configuration for songbook builds.
func (t BuildSongbookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "build_songbook",
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     15 * time.Minute, // Full songbooks run to hundreds of pages
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// Request converts the task into a service request.
func (t BuildSongbookTask) Request() services.SongbookRequest {
	return services.SongbookRequest{
		Locale:       t.Locale,
		Suffix:       t.Suffix,
		IncludeIndex: t.IncludeIndex,
		PageNumbers:  t.PageNumbers,
		Format:       t.Format,
	}
}

// BuildSongbookProcessor creates a processor function for BuildSongbookTask.
func BuildSongbookProcessor(builder SongbookBuilder) backlite.QueueProcessor[BuildSongbookTask] {
	log := logging.GetLogger("tasks")
	return func(ctx context.Context, task BuildSongbookTask) error {
		if builder == nil {
			return fmt.Errorf("songbook builder not configured")
		}

		artifact, err := builder.BuildSongbook(ctx, task.Request())
		if err != nil {
			return fmt.Errorf("build songbook %s: %w", task.Locale, err)
		}

		log.Info().
			Str("locale", task.Locale).
			Str("artifact", artifact.ID).
			Int("pages", artifact.Pages).
			Msg("Songbook built")
		return nil
	}
}

// NewBuildSongbookQueue creates a backlite queue for songbook builds.
func NewBuildSongbookQueue(builder SongbookBuilder) backlite.Queue {
	return backlite.NewQueue(BuildSongbookProcessor(builder))
}
