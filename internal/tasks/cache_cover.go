package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/lectern-app/lectern/internal/covers"
)

// CacheCoverTask prefetches a book's external cover image into the local
// cache so the first reader doesn't pay the fetch latency.
type CacheCoverTask struct {
	BookID   uint   `json:"book_id"`
	CoverURL string `json:"cover_url"`
}

// Config returns the queue configuration for cover prefetch tasks.
func (t CacheCoverTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cache_cover",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     1 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CacheCoverProcessor creates a processor function for CacheCoverTask.
func CacheCoverProcessor(cache *covers.Cache) backlite.QueueProcessor[CacheCoverTask] {
	return func(ctx context.Context, task CacheCoverTask) error {
		if cache == nil {
			return fmt.Errorf("cover cache not configured")
		}

		path, err := cache.GetCover(task.BookID, task.CoverURL)
		if err != nil {
			return fmt.Errorf("cache cover for book %d: %w", task.BookID, err)
		}
		if path != "" {
			log.Printf("[TASK] Cached cover for book %d at %s", task.BookID, path)
		}
		return nil
	}
}

// NewCacheCoverQueue creates a backlite queue for cover prefetch tasks.
func NewCacheCoverQueue(cache *covers.Cache) backlite.Queue {
	return backlite.NewQueue(CacheCoverProcessor(cache))
}
