// Package scheduler runs the session timers on gocron.
package scheduler

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/marine-forecast/internal/log"
)

// Scheduler runs named periodic and one-shot jobs. It can be stopped and
// started again; Stop discards every job.
type Scheduler struct {
	mu        sync.Mutex
	scheduler *gocron.Scheduler
}

// New creates a stopped Scheduler.
func New() *Scheduler {
	return &Scheduler{scheduler: newGocron()}
}

func newGocron() *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return s
}

// Every runs fn every interval, first after one interval has elapsed. A run
// still in progress when the next is due causes that run to be skipped.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.scheduler.Every(interval).Tag(name).WaitForSchedule().SingletonMode().Do(s.wrap(name, fn))
	return err
}

// After runs fn once after delay.
func (s *Scheduler) After(name string, delay time.Duration, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.scheduler.Every(delay).Tag(name).WaitForSchedule().LimitRunsTo(1).Do(s.wrap(name, fn))
	return err
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler.StartAsync()
}

// Stop cancels every job. A fresh underlying scheduler replaces the stopped
// one so the Scheduler can be reused.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduler.Clear()
	if s.scheduler.IsRunning() {
		s.scheduler.Stop()
	}
	s.scheduler = newGocron()
}

// Jobs returns the tags of the scheduled jobs.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tags []string
	for _, j := range s.scheduler.Jobs() {
		tags = append(tags, j.Tags()...)
	}
	return tags
}

func (s *Scheduler) wrap(name string, fn func()) func() {
	return func() {
		log.Debug("Running scheduled job", "job", name)
		fn()
	}
}
