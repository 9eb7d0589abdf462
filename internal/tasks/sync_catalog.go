package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/cancionero/internal/logging"
	"github.com/mrlokans/cancionero/internal/services"
)

// CatalogSyncer mirrors the song library into the catalog.
type CatalogSyncer interface {
	SyncCatalog(ctx context.Context, locales ...string) (services.SyncResult, error)
}

// SyncCatalogTask refreshes the catalog rows of the given locales, every
// locale when empty.
type SyncCatalogTask struct {
	Locales []string `json:"locales,omitempty"`
}

// Config returns the queue configuration for catalog syncs.
func (t SyncCatalogTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sync_catalog",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SyncCatalogProcessor creates a processor function for SyncCatalogTask.
func SyncCatalogProcessor(syncer CatalogSyncer) backlite.QueueProcessor[SyncCatalogTask] {
	log := logging.GetLogger("tasks")
	return func(ctx context.Context, task SyncCatalogTask) error {
		if syncer == nil {
			return fmt.Errorf("catalog syncer not configured")
		}

		result, err := syncer.SyncCatalog(ctx, task.Locales...)
		if err != nil {
			return fmt.Errorf("sync catalog: %w", err)
		}

		log.Info().Interface("songs", result.Songs).Int64("removed", result.Removed).Msg("Catalog synced")
		return nil
	}
}

// NewSyncCatalogQueue creates a backlite queue for catalog syncs.
func NewSyncCatalogQueue(syncer CatalogSyncer) backlite.Queue {
	return backlite.NewQueue(SyncCatalogProcessor(syncer))
}
