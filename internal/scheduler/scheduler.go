package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/vytor/tenxcards/internal/logger"
)

type Job interface {
	Run(context.Context) error
	Name() string
}

type entry struct {
	job   Job
	every time.Duration
}

// Scheduler runs each registered job on its own fixed interval until Stop.
type Scheduler struct {
	entries []entry
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	log     *logger.Logger
}

func New() *Scheduler {
	return &Scheduler{log: logger.Default().WithPrefix("scheduler")}
}

// Add registers job to run every interval. It must be called before Start.
func (s *Scheduler) Add(job Job, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	s.log.Debug("registering job %s every %v", job.Name(), every)
	s.entries = append(s.entries, entry{job: job, every: every})
}

func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.log.Info("starting scheduler with %d jobs", len(s.entries))

	for _, e := range s.entries {
		s.wg.Add(1)
		go func(e entry) {
			defer s.wg.Done()
			jobLog := s.log.WithField("job", e.job.Name())
			ticker := time.NewTicker(e.every)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					jobLog.Debug("job loop shutting down")
					return
				case <-ticker.C:
					s.runOnce(logger.NewContext(ctx, jobLog), jobLog, e.job)
				}
			}
		}(e)
	}
}

func (s *Scheduler) runOnce(ctx context.Context, log *logger.Logger, job Job) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("job panicked: %v", rec)
		}
	}()
	if err := job.Run(ctx); err != nil {
		log.Error("job failed after %v: %v", time.Since(start), err)
		return
	}
	log.Debug("job completed in %v", time.Since(start))
}

// Stop cancels all job loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.log.Info("stopping scheduler")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}
