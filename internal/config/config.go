package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/mrlokans/cancionero/internal/layout"
)

type (
	Config struct {
		HTTP
		Library
		Output
		Render
		Database
		Tasks
		Schedule
		Global
		Log
	}

	HTTP struct {
		Port            int32
		Host            string
		RenderRateLimit int  // Render requests per client per minute, 0 = unlimited
		ReadOnly        bool // Reject requests that build or enqueue documents
		CacheDir        string
	}
	Library struct {
		SongsDir string // index.json plus <locale>/<Title - Source>.txt
	}
	Output struct {
		Dir string
	}
	Render struct {
		Locale       string
		PageSize     float64
		MarginTop    float64
		MarginBottom float64
		MarginLeft   float64
		MarginRight  float64
		Columns      int
		ColumnGap    float64
		FontPath     string // UTF-8 TTF; empty uses the core Helvetica font
		ThemePath    string // YAML theme; empty uses the embedded default
		Workers      int    // Concurrent song resolution, 0 = one per song
	}
	Database struct {
		Path string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Schedule struct {
		Enabled bool
		Cron    string   // Cron format: "0 3 * * *" = daily at 03:00
		Locales []string // Songbooks rebuilt on every run
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Log struct {
		Verbosity int
	}
)

// Geometry is the page geometry described by the render settings.
func (r Render) Geometry() layout.Geometry {
	return layout.Geometry{
		PageWidth:  r.PageSize,
		PageHeight: r.PageSize,
		Columns:    r.Columns,
		ColumnGap:  r.ColumnGap,
		Margins: layout.Margins{
			Top:    r.MarginTop,
			Bottom: r.MarginBottom,
			Left:   r.MarginLeft,
			Right:  r.MarginRight,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("songs_dir", DefaultSongsDir)
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("log_verbosity", 0)
	v.SetDefault("render_rate_limit", 30)
	v.SetDefault("read_only", false)
	v.SetDefault("cache_dir", DefaultCacheDir)

	// Render defaults
	v.SetDefault("render_locale", "es")
	v.SetDefault("render_page_size", DefaultPageSize)
	v.SetDefault("render_margin_top", DefaultMargin)
	v.SetDefault("render_margin_bottom", DefaultMargin)
	v.SetDefault("render_margin_left", DefaultMargin)
	v.SetDefault("render_margin_right", DefaultMargin)
	v.SetDefault("render_columns", DefaultColumns)
	v.SetDefault("render_column_gap", DefaultMargin)
	v.SetDefault("render_font_path", "")
	v.SetDefault("render_theme_path", "")
	v.SetDefault("render_workers", 4)

	// Scheduled rebuild defaults
	v.SetDefault("schedule_enabled", false)
	v.SetDefault("schedule_cron", "0 3 * * *") // Daily at 03:00
	v.SetDefault("schedule_locales", []string{"es"})

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")
}

// NewConfig reads the configuration from the environment.
func NewConfig() *Config {
	cfg, _ := Load("")
	return cfg
}

// Load reads the configuration from the environment and, when path is not
// empty, from a config file. Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),

			RenderRateLimit: v.GetInt("RENDER_RATE_LIMIT"),
			ReadOnly:        v.GetBool("READ_ONLY"),
			CacheDir:        v.GetString("CACHE_DIR"),
		},
		Library: Library{
			SongsDir: v.GetString("SONGS_DIR"),
		},
		Output: Output{
			Dir: v.GetString("OUTPUT_DIR"),
		},
		Render: Render{
			Locale:       v.GetString("RENDER_LOCALE"),
			PageSize:     v.GetFloat64("RENDER_PAGE_SIZE"),
			MarginTop:    v.GetFloat64("RENDER_MARGIN_TOP"),
			MarginBottom: v.GetFloat64("RENDER_MARGIN_BOTTOM"),
			MarginLeft:   v.GetFloat64("RENDER_MARGIN_LEFT"),
			MarginRight:  v.GetFloat64("RENDER_MARGIN_RIGHT"),
			Columns:      v.GetInt("RENDER_COLUMNS"),
			ColumnGap:    v.GetFloat64("RENDER_COLUMN_GAP"),
			FontPath:     v.GetString("RENDER_FONT_PATH"),
			ThemePath:    v.GetString("RENDER_THEME_PATH"),
			Workers:      v.GetInt("RENDER_WORKERS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Schedule: Schedule{
			Enabled: v.GetBool("SCHEDULE_ENABLED"),
			Cron:    v.GetString("SCHEDULE_CRON"),
			Locales: v.GetStringSlice("SCHEDULE_LOCALES"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Log: Log{
			Verbosity: v.GetInt("LOG_VERBOSITY"),
		},
	}, nil
}
