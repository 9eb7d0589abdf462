package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/cancionero/internal/logging"
)

// ArtifactCleaner deletes old artifact records.
type ArtifactCleaner interface {
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// CleanupArtifactsTask removes artifact records older than the retention
// period. Generated files are left on disk.
type CleanupArtifactsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for artifact cleanup tasks.
func (t CleanupArtifactsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_artifacts",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupArtifactsProcessor creates a processor function for CleanupArtifactsTask.
func CleanupArtifactsProcessor(cleaner ArtifactCleaner) backlite.QueueProcessor[CleanupArtifactsTask] {
	log := logging.GetLogger("tasks")
	return func(ctx context.Context, task CleanupArtifactsTask) error {
		if cleaner == nil {
			return fmt.Errorf("artifact cleaner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 30
		}
		cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

		deleted, err := cleaner.DeleteOlderThan(cutoff)
		if err != nil {
			return fmt.Errorf("cleanup artifacts: %w", err)
		}

		log.Info().Int64("deleted", deleted).Int("retention_days", retentionDays).Msg("Cleaned up artifacts")
		return nil
	}
}

// NewCleanupArtifactsQueue creates a backlite queue for artifact cleanup tasks.
func NewCleanupArtifactsQueue(cleaner ArtifactCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupArtifactsProcessor(cleaner))
}
