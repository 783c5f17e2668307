// Package jobs schedules the Front-End's background sweeps: the
// Reclamation Loop, the quota bucket janitor, and the provider health
// checker. All three are interval jobs registered on one gocron
// scheduler rather than three independent goroutines with their own
// tickers.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps a gocron.Scheduler, logging failures the way the rest
// of the Front-End logs request failures rather than letting a job panic
// the process.
type Scheduler struct {
	gocron gocron.Scheduler
	log    *slog.Logger
}

// New creates a scheduler with UTC second-level precision, matching the
// teacher's scheduler_service.go.
func New(log *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	return &Scheduler{gocron: s, log: log}, nil
}

// Every registers a named job that runs task on a fixed interval,
// starting after the first interval elapses.
func (s *Scheduler) Every(name string, interval time.Duration, task func(ctx context.Context)) error {
	_, err := s.gocron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("job panicked", "job", name, "panic", r)
				}
			}()
			start := time.Now()
			task(context.Background())
			s.log.Debug("job ran", "job", name, "duration", time.Since(start))
		}),
		gocron.WithName(name),
	)
	return err
}

// Start begins running all registered jobs on their schedules.
func (s *Scheduler) Start() {
	s.gocron.Start()
}

// Shutdown stops the scheduler and waits for any in-flight job to finish.
func (s *Scheduler) Shutdown() error {
	return s.gocron.Shutdown()
}
