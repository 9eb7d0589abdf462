package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog"

	"github.com/mrlokans/cancionero/internal/logging"
)

// Client runs the background build queue on a backlite SQLite database of
// its own, so long songbook builds never hold locks on the catalog.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config
	log    zerolog.Logger

	mu      sync.RWMutex
	started bool
}

// QueueDBPath places the queue database next to the catalog database:
// data/cancionero.db queues in data/cancionero-tasks.db.
func QueueDBPath(catalogPath string) string {
	ext := filepath.Ext(catalogPath)
	return strings.TrimSuffix(catalogPath, ext) + "-tasks" + ext
}

// NewClient opens the queue database for catalogPath and installs the
// backlite schema.
func NewClient(catalogPath string, cfg Config) (*Client, error) {
	// WAL lets the workers read while a build result is being written
	db, err := sql.Open("sqlite3", QueueDBPath(catalogPath)+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	logger := logging.GetLogger("tasks")

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &zerologLogger{log: logger},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create backlite client: %w", err)
	}
	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install backlite schema: %w", err)
	}

	return &Client{
		client: client,
		db:     db,
		config: cfg,
		log:    logger,
	}, nil
}

// Register adds queues to the client. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start runs the workers until Stop or ctx is cancelled. It does not block.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.log.Info().Int("workers", c.config.Workers).Msg("Task queue started")
	c.client.Start(ctx)
}

// Started reports whether the workers are running.
func (c *Client) Started() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.started
}

// Stop waits for running tasks until ctx expires and reports whether every
// worker finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return true
	}
	c.started = false
	c.mu.Unlock()

	c.log.Info().Msg("Stopping task queue")
	if !c.client.Stop(ctx) {
		c.log.Warn().Msg("Task queue stopped with timeout, some builds may not have completed")
		return false
	}
	c.log.Info().Msg("Task queue stopped gracefully")
	return true
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Enqueue saves a single task and returns its ID.
func (c *Client) Enqueue(task backlite.Task) (string, error) {
	ids, err := c.EnqueueAll(task)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// EnqueueAll saves tasks in one transaction and returns their IDs in order.
func (c *Client) EnqueueAll(tasks ...backlite.Task) ([]string, error) {
	if len(tasks) == 0 {
		return nil, errors.New("no tasks to enqueue")
	}
	ids, err := c.client.Add(tasks...).Save()
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}
	if len(ids) != len(tasks) {
		return nil, fmt.Errorf("failed to enqueue task: got %d ids for %d tasks", len(ids), len(tasks))
	}
	return ids, nil
}

// Status returns the status of a task by ID.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.client.Status(ctx, taskID)
}

// zerologLogger implements backlite.Logger. backlite passes key/value
// pairs after the message.
type zerologLogger struct {
	log zerolog.Logger
}

func (l *zerologLogger) Info(message string, params ...any) {
	l.log.Info().Fields(params).Msg(message)
}

func (l *zerologLogger) Error(message string, params ...any) {
	l.log.Error().Fields(params).Msg(message)
}
