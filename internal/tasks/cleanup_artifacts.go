package tasks

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mikestefanello/backlite"
)

// CleanupArtifactsTask removes narration audio artifacts older than the
// retention window. Artifacts are regenerated on every narration request,
// so deleting stale ones never serves anyone a missing or outdated file.
type CleanupArtifactsTask struct {
	RetentionMinutes int `json:"retention_minutes"`
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

// CleanupArtifactsProcessor creates a processor function for
// CleanupArtifactsTask operating on the audio artifact directory.
func CleanupArtifactsProcessor(audioDir string) backlite.QueueProcessor[CleanupArtifactsTask] {
	return func(ctx context.Context, task CleanupArtifactsTask) error {
		retention := time.Duration(task.RetentionMinutes) * time.Minute
		if retention <= 0 {
			retention = 24 * time.Hour
		}
		cutoff := time.Now().Add(-retention)

		matches, err := filepath.Glob(filepath.Join(audioDir, "book_*_audio.*"))
		if err != nil {
			return fmt.Errorf("scan audio dir: %w", err)
		}

		removed := 0
		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove artifact %s: %w", path, err)
				}
				removed++
			}
		}

		log.Printf("[TASK] Cleaned up %d narration artifacts older than %s", removed, retention)
		return nil
	}
}

// NewCleanupArtifactsQueue creates a backlite queue for artifact cleanup.
func NewCleanupArtifactsQueue(audioDir string) backlite.Queue {
	return backlite.NewQueue(CleanupArtifactsProcessor(audioDir))
}
