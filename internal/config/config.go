package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeToken AuthMode = "token" // Bearer tokens against the local user table
)

// DefaultDatabasePath is where the SQLite database lives unless overridden.
const DefaultDatabasePath = "./lectern.db"

type (
	Config struct {
		HTTP
		Global
		Database
		Storage
		Narration
		Tasks
		Cleanup
		Auth
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Storage struct {
		DocumentsDir string // Uploaded book documents (PDF blobs)
		CoversDir    string // Uploaded and cached cover images
		AudioDir     string // Generated narration artifacts
	}
	Narration struct {
		Language     string        // Synthesis voice language code
		SynthTimeout time.Duration // Cap on a single synthesis call
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
	Cleanup struct {
		Enabled   bool
		Schedule  string        // Cron format: "0 * * * *" = hourly
		Retention time.Duration // Narration artifacts older than this are removed
	}
	Auth struct {
		Mode AuthMode
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Blob storage defaults
	v.SetDefault("storage_documents_dir", "./data/documents")
	v.SetDefault("storage_covers_dir", "./data/covers")
	v.SetDefault("storage_audio_dir", "./data/audio")

	// Narration defaults
	v.SetDefault("narration_language", "en")
	v.SetDefault("narration_synth_timeout", "2m")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Artifact cleanup defaults
	v.SetDefault("cleanup_enabled", true)
	v.SetDefault("cleanup_schedule", "0 * * * *") // Hourly at :00
	v.SetDefault("cleanup_retention", "24h")

	// Auth defaults
	v.SetDefault("auth_mode", "none")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Storage: Storage{
			DocumentsDir: v.GetString("STORAGE_DOCUMENTS_DIR"),
			CoversDir:    v.GetString("STORAGE_COVERS_DIR"),
			AudioDir:     v.GetString("STORAGE_AUDIO_DIR"),
		},
		Narration: Narration{
			Language:     v.GetString("NARRATION_LANGUAGE"),
			SynthTimeout: v.GetDuration("NARRATION_SYNTH_TIMEOUT"),
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
		Cleanup: Cleanup{
			Enabled:   v.GetBool("CLEANUP_ENABLED"),
			Schedule:  v.GetString("CLEANUP_SCHEDULE"),
			Retention: v.GetDuration("CLEANUP_RETENTION"),
		},
		Auth: Auth{
			Mode: AuthMode(v.GetString("AUTH_MODE")),
		},
	}
}
