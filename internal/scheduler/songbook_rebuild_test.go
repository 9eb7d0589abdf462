package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cancionero/internal/config"
	"github.com/mrlokans/cancionero/internal/entities"
	"github.com/mrlokans/cancionero/internal/services"
	"github.com/mrlokans/cancionero/internal/tasks"
)

type fakeQueue struct {
	tasks []backlite.Task
	err   error
}

func (f *fakeQueue) EnqueueAll(batch ...backlite.Task) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var ids []string
	for _, task := range batch {
		f.tasks = append(f.tasks, task)
		ids = append(ids, "task-"+task.(tasks.BuildSongbookTask).Locale)
	}
	return ids, nil
}

type fakeBuilder struct {
	locales []string
}

func (f *fakeBuilder) BuildSongbook(_ context.Context, r services.SongbookRequest) (*entities.Artifact, error) {
	f.locales = append(f.locales, r.Locale)
	return &entities.Artifact{}, nil
}

// blockingBuilder holds a build until its context is cancelled.
type blockingBuilder struct {
	once    sync.Once
	started chan struct{}
}

func (b *blockingBuilder) BuildSongbook(ctx context.Context, _ services.SongbookRequest) (*entities.Artifact, error) {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCronHelpers(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("0 3 * * *"))
	assert.Error(t, ValidateCronSchedule("every day"))
	descriptions := map[string]string{
		"0 3 * * *":    "Daily at 03:00",
		"5 4 * * *":    "Daily at 04:05",
		"30 * * * *":   "Every hour at :30",
		"0 */6 * * *":  "Every 6 hours",
		"0 0 * * 0":    "Weekly on Sunday at 00:00",
		"15 21 * * 6":  "Weekly on Saturday at 21:15",
		"0 3 1 * *":    "Custom schedule: 0 3 1 * *",
		"0 3 * * 1-5":  "Custom schedule: 0 3 * * 1-5",
		"*/5 * * * *":  "Custom schedule: */5 * * * *",
		"not a cron x": "Custom schedule: not a cron x",
	}
	for schedule, want := range descriptions {
		assert.Equal(t, want, GetCronDescription(schedule), schedule)
	}

	from := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	next, err := GetNextRunTime("0 3 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 16, 3, 0, 0, 0, time.UTC), next)
}

func TestRunEnqueuesEveryLocale(t *testing.T) {
	queue := &fakeQueue{}
	s := NewSongbookScheduler(config.Schedule{Locales: []string{"es", "it"}}, queue, nil)

	status := s.RunNow(context.Background())
	assert.Empty(t, status.Error)
	assert.Equal(t, []string{"task-es", "task-it"}, status.TaskIDs)
	require.Len(t, queue.tasks, 2)
	assert.Equal(t, tasks.BuildSongbookTask{Locale: "it", IncludeIndex: true, PageNumbers: true}, queue.tasks[1])
	assert.Equal(t, status.TaskIDs, s.LastRun().TaskIDs)
}

func TestRunWithoutQueueBuildsInline(t *testing.T) {
	builder := &fakeBuilder{}
	s := NewSongbookScheduler(config.Schedule{Locales: []string{"pt"}}, nil, builder)

	status := s.RunNow(context.Background())
	assert.Empty(t, status.Error)
	assert.Equal(t, []string{"pt"}, builder.locales)

	none := NewSongbookScheduler(config.Schedule{Locales: []string{"pt"}}, nil, nil)
	assert.Equal(t, "no queue or builder configured", none.RunNow(context.Background()).Error)
}

func TestRunRecordsErrors(t *testing.T) {
	s := NewSongbookScheduler(config.Schedule{Locales: []string{"es"}}, &fakeQueue{err: errors.New("queue closed")}, nil)
	assert.Nil(t, s.LastRun())

	status := s.RunNow(context.Background())
	assert.Equal(t, "queue closed", status.Error)
	assert.Equal(t, "queue closed", s.LastRun().Error)
}

func TestStartStop(t *testing.T) {
	disabled := NewSongbookScheduler(config.Schedule{Enabled: false, Cron: "0 3 * * *", Locales: []string{"es"}}, &fakeQueue{}, nil)
	require.NoError(t, disabled.Start(context.Background()))
	assert.False(t, disabled.IsRunning())

	invalid := NewSongbookScheduler(config.Schedule{Enabled: true, Cron: "nope", Locales: []string{"es"}}, &fakeQueue{}, nil)
	assert.Error(t, invalid.Start(context.Background()))

	s := NewSongbookScheduler(config.Schedule{Enabled: true, Cron: "0 3 * * *", Locales: []string{"es"}}, &fakeQueue{}, nil)
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.Equal(t, 3, next.Hour())

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestStopDuringInlineRebuild(t *testing.T) {
	builder := &blockingBuilder{started: make(chan struct{})}
	s := NewSongbookScheduler(config.Schedule{Enabled: true, Cron: "0 3 * * *", Locales: []string{"es"}}, nil, builder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	// A job that fires within a second and runs the inline rebuild
	s.cron.Schedule(cron.Every(time.Second), cron.FuncJob(func() { s.run(ctx) }))

	select {
	case <-builder.started:
	case <-time.After(5 * time.Second):
		t.Fatal("rebuild did not start")
	}

	cancel()
	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return while a rebuild was running")
	}
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
	require.Eventually(t, func() bool { return s.LastRun() != nil }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, context.Canceled.Error(), s.LastRun().Error)
}
