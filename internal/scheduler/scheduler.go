package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"CCLSentinel/internal/recorder"
)

// Purger drops cached provider responses.
type Purger interface {
	Purge() int
}

// Scheduler runs the housekeeping jobs: fetch cache purge and history pruning.
type Scheduler struct {
	Cron      *cron.Cron
	Cache     Purger
	Recorder  recorder.Recorder
	Retention time.Duration

	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(cache Purger, rec recorder.Recorder, retention time.Duration) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Cache:     cache,
		Recorder:  rec,
		Retention: retention,
		now:       time.Now,
	}
}

// RegisterAll registers the cache purge and history prune jobs.
func (s *Scheduler) RegisterAll(cachePurgeCron, historyPruneCron string) error {
	if _, err := s.Cron.AddFunc(cachePurgeCron, s.PurgeCache); err != nil {
		return fmt.Errorf("register cache purge: %w", err)
	}
	if _, err := s.Cron.AddFunc(historyPruneCron, s.PruneHistory); err != nil {
		return fmt.Errorf("register history prune: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// PurgeCache empties the fetch cache so the next request sees fresh quotes.
func (s *Scheduler) PurgeCache() {
	if s.Cache == nil {
		return
	}
	n := s.Cache.Purge()
	log.Printf("[INFO] fetch cache purged: %d entries", n)
}

// PruneHistory deletes recorded history older than the retention window.
func (s *Scheduler) PruneHistory() {
	if s.Recorder == nil || s.Retention <= 0 {
		return
	}
	cutoff := s.now().Add(-s.Retention)
	n, err := s.Recorder.Prune(cutoff)
	if err != nil {
		log.Printf("[ERROR] prune history: %v", err)
		return
	}
	log.Printf("[INFO] history pruned before %s: %d runs", cutoff.Format("2006-01-02"), n)
}
