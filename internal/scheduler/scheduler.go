// Package scheduler runs named jobs periodically. A job never overlaps with
// itself: a tick that finds the previous run still in flight is skipped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownJob is returned by Trigger for an unregistered name.
var ErrUnknownJob = errors.New("unknown job")

// Job is one periodic task.
type Job struct {
	Name       string
	Interval   time.Duration
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// JobStats is a snapshot of one job's history.
type JobStats struct {
	Name         string        `json:"name"`
	Interval     string        `json:"interval"`
	Running      bool          `json:"running"`
	Runs         int           `json:"runs"`
	Failures     int           `json:"failures"`
	Skipped      int           `json:"skipped"`
	LastStart    time.Time     `json:"last_start"`
	LastDuration time.Duration `json:"last_duration_ns"`
	LastError    string        `json:"last_error,omitempty"`
}

type jobState struct {
	job   Job
	stats JobStats
}

// Scheduler owns a set of jobs.
type Scheduler struct {
	logger zerolog.Logger
	now    func() time.Time

	mu   sync.Mutex
	jobs map[string]*jobState
}

// New creates an empty Scheduler.
func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		logger: logger.With().Str("component", "scheduler").Logger(),
		now:    time.Now,
		jobs:   make(map[string]*jobState),
	}
}

// Add registers a job. Jobs must be added before Run.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil || job.Interval <= 0 {
		return fmt.Errorf("invalid job %q: name, run func and positive interval are required", job.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.jobs[job.Name]; dup {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	s.jobs[job.Name] = &jobState{job: job, stats: JobStats{Name: job.Name, Interval: job.Interval.String()}}
	return nil
}

// Run drives every job until ctx is cancelled, then waits for in-flight
// runs and returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	states := make([]*jobState, 0, len(s.jobs))
	for _, st := range s.jobs {
		states = append(states, st)
	}
	s.mu.Unlock()

	var g errgroup.Group
	for _, st := range states {
		g.Go(func() error {
			s.loop(ctx, st)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func (s *Scheduler) loop(ctx context.Context, st *jobState) {
	s.logger.Info().Str("job", st.job.Name).Dur("interval", st.job.Interval).Msg("job scheduled")

	if st.job.RunOnStart {
		s.execute(ctx, st)
	}

	ticker := time.NewTicker(st.job.Interval)
	defer ticker.Stop()

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				s.execute(ctx, st)
			}()
		}
	}
}

// Trigger runs a job now, outside its schedule. ran is false when the job
// was already in flight.
func (s *Scheduler) Trigger(ctx context.Context, name string) (ran bool, err error) {
	s.mu.Lock()
	st, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, st), nil
}

// execute runs the job unless it is already running.
func (s *Scheduler) execute(ctx context.Context, st *jobState) bool {
	s.mu.Lock()
	if st.stats.Running {
		st.stats.Skipped++
		s.mu.Unlock()
		s.logger.Info().Str("job", st.job.Name).Msg("previous run still in flight, skipping")
		return false
	}
	st.stats.Running = true
	start := s.now()
	st.stats.LastStart = start
	s.mu.Unlock()

	err := st.job.Run(ctx)

	s.mu.Lock()
	st.stats.Running = false
	st.stats.Runs++
	st.stats.LastDuration = s.now().Sub(start)
	st.stats.LastError = ""
	if err != nil {
		st.stats.Failures++
		st.stats.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		s.logger.Warn().Err(err).Str("job", st.job.Name).Msg("job failed")
	}
	return true
}

// Stats returns a snapshot of every job, sorted by name.
func (s *Scheduler) Stats() []JobStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobStats, 0, len(s.jobs))
	for _, st := range s.jobs {
		out = append(out, st.stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
