package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mrlokans/cancionero/internal/config"
	"github.com/mrlokans/cancionero/internal/logging"
	"github.com/mrlokans/cancionero/internal/tasks"
)

// Enqueuer hands tasks to the background queue.
type Enqueuer interface {
	EnqueueAll(tasks ...backlite.Task) ([]string, error)
}

// RunStatus describes the last scheduled run.
type RunStatus struct {
	At      time.Time `json:"at"`
	Locales []string  `json:"locales"`
	TaskIDs []string  `json:"task_ids,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// SongbookScheduler periodically rebuilds the songbooks of the configured
// locales. With a queue the builds are enqueued, otherwise they run inline
// on the cron goroutine.
type SongbookScheduler struct {
	cfg     config.Schedule
	queue   Enqueuer
	builder tasks.SongbookBuilder
	log     zerolog.Logger

	cron    *cron.Cron
	entryID cron.EntryID

	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
	last       *RunStatus
}

// NewSongbookScheduler creates a new scheduler instance. queue may be nil.
func NewSongbookScheduler(cfg config.Schedule, queue Enqueuer, builder tasks.SongbookBuilder) *SongbookScheduler {
	return &SongbookScheduler{
		cfg:     cfg,
		queue:   queue,
		builder: builder,
		log:     logging.GetLogger("scheduler"),
		cron:    cron.New(cron.WithParser(parser)),
	}
}

// Start begins the scheduler if rebuilds are enabled
func (s *SongbookScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.Enabled {
		s.log.Info().Msg("Songbook scheduler disabled")
		return nil
	}

	if len(s.cfg.Locales) == 0 {
		s.log.Warn().Msg("Songbook scheduler: no locales configured, skipping")
		return nil
	}

	if err := ValidateCronSchedule(s.cfg.Cron); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.cfg.Cron, err)
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	entryID, err := s.cron.AddFunc(s.cfg.Cron, func() {
		s.run(cancelCtx)
	})
	if err != nil {
		s.cancelFunc()
		return fmt.Errorf("failed to schedule rebuild job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := GetNextRunTime(s.cfg.Cron, time.Now())
	s.log.Info().
		Str("schedule", s.cfg.Cron).
		Str("description", GetCronDescription(s.cfg.Cron)).
		Strs("locales", s.cfg.Locales).
		Time("next_run", nextRun).
		Msg("Songbook scheduler started")

	// Monitor for context cancellation
	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler. It cancels an inline rebuild and
// waits for the running job to return.
func (s *SongbookScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	c, entryID := s.cron, s.entryID
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.mu.Unlock()

	// The running job stores its status under mu, so wait without holding it
	<-c.Stop().Done()
	c.Remove(entryID)

	s.log.Info().Msg("Songbook scheduler stopped")
}

// RunNow triggers an immediate rebuild and waits for it to be enqueued
// (or built, without a queue).
func (s *SongbookScheduler) RunNow(ctx context.Context) RunStatus {
	return s.run(ctx)
}

// IsRunning returns whether the scheduler is active
func (s *SongbookScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// LastRun returns the status of the last run, nil before the first one.
func (s *SongbookScheduler) LastRun() *RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	status := *s.last
	return &status
}

// GetNextRunTime returns when the next rebuild will occur
func (s *SongbookScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func rebuildTask(locale string) tasks.BuildSongbookTask {
	return tasks.BuildSongbookTask{Locale: locale, IncludeIndex: true, PageNumbers: true}
}

func (s *SongbookScheduler) run(ctx context.Context) RunStatus {
	status := RunStatus{At: time.Now(), Locales: s.cfg.Locales}

	switch {
	case len(s.cfg.Locales) == 0:
	case s.queue != nil:
		// One batch, so a rebuild never enqueues only some locales
		batch := make([]backlite.Task, len(s.cfg.Locales))
		for i, locale := range s.cfg.Locales {
			batch[i] = rebuildTask(locale)
		}
		ids, err := s.queue.EnqueueAll(batch...)
		if err != nil {
			status.Error = err.Error()
			s.log.Error().Err(err).Strs("locales", s.cfg.Locales).Msg("Failed to enqueue songbook rebuild")
			break
		}
		status.TaskIDs = ids
	case s.builder != nil:
		for _, locale := range s.cfg.Locales {
			if _, err := s.builder.BuildSongbook(ctx, rebuildTask(locale).Request()); err != nil {
				status.Error = err.Error()
				s.log.Error().Err(err).Str("locale", locale).Msg("Songbook rebuild failed")
				break
			}
		}
	default:
		status.Error = "no queue or builder configured"
	}

	s.mu.Lock()
	s.last = &status
	s.mu.Unlock()
	return status
}
