// Package scheduler runs periodic maintenance jobs on a UTC cron clock.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type Job func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	jobs    map[string]cron.EntryID
	running bool
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		jobs:   map[string]cron.EntryID{},
	}
}

// Add registers job under name with a standard five-field cron spec.
// Re-adding a name replaces the earlier entry.
func (s *Scheduler) Add(name, spec string, job Job) error {
	id, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.jobs[name]; ok {
		s.cron.Remove(prev)
	}
	s.jobs[name] = id
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	start := time.Now()
	if err := job(s.ctx); err != nil {
		log.Printf("scheduler: %s failed: %v", name, err)
		return
	}
	log.Printf("scheduler: %s finished in %s", name, time.Since(start).Round(time.Millisecond))
}

func (s *Scheduler) Jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Next returns the next activation of the named job, zero if unknown or
// the scheduler is not started.
func (s *Scheduler) Next(name string) time.Time {
	s.mu.Lock()
	id, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	if len(s.jobs) == 0 {
		log.Println("scheduler: no jobs registered")
	}
	s.cron.Start()
	s.running = true
	log.Printf("scheduler: started with %d job(s)", len(s.jobs))
}

// Stop cancels the context of running jobs, then waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()
	s.cancel()
	if wasRunning {
		<-s.cron.Stop().Done()
	}
	log.Println("scheduler: stopped")
}
