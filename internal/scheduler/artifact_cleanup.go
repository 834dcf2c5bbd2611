// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lectern-app/lectern/internal/tasks"
)

// ArtifactCleanupScheduler periodically enqueues a cleanup task that
// removes stale narration artifacts from the audio directory.
type ArtifactCleanupScheduler struct {
	client    *tasks.Client
	schedule  string
	retention time.Duration

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewArtifactCleanupScheduler creates a new scheduler instance. The
// schedule uses standard five-field cron syntax.
func NewArtifactCleanupScheduler(client *tasks.Client, schedule string, retention time.Duration) *ArtifactCleanupScheduler {
	return &ArtifactCleanupScheduler{
		client:    client,
		schedule:  schedule,
		retention: retention,
		cron:      cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *ArtifactCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.enqueueCleanup()
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule '%s': %w", s.schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Artifact cleanup scheduler: started with schedule '%s' (retention %s)", s.schedule, s.retention)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *ArtifactCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Artifact cleanup scheduler: stopped")
}

// RunNow enqueues an immediate cleanup, outside the schedule.
func (s *ArtifactCleanupScheduler) RunNow() error {
	return s.enqueueCleanup()
}

// IsRunning returns whether the scheduler is active.
func (s *ArtifactCleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next cleanup will be enqueued.
func (s *ArtifactCleanupScheduler) GetNextRunTime() *time.Time {
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

func (s *ArtifactCleanupScheduler) enqueueCleanup() error {
	task := tasks.CleanupArtifactsTask{
		RetentionMinutes: int(s.retention.Minutes()),
	}
	if _, err := s.client.Add(task).Save(); err != nil {
		log.Printf("Artifact cleanup: failed to enqueue task: %v", err)
		return err
	}
	return nil
}
