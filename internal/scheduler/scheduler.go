// Package scheduler runs recurring ingestion jobs on cron specs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/logger"
	"github.com/kailas-cloud/findfit/internal/metrics"
)

// DefaultJobTimeout bounds one job run.
const DefaultJobTimeout = 2 * time.Hour

// Job is a named recurring task.
type Job struct {
	Name string
	Spec string // standard 5-field cron spec or descriptor such as "@every 3h"
	Run  func(ctx context.Context) error
}

// Entry describes a registered job.
type Entry struct {
	Name string
	Spec string
	Next time.Time
}

// Scheduler runs jobs with overlap protection: a tick that arrives while the
// previous run of the same job is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	jobs    map[string]cron.EntryID
	specs   map[string]string
}

// New creates a Scheduler. timeout <= 0 selects DefaultJobTimeout.
func New(timeout time.Duration, log *zap.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	cl := cronLogger{l: log.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		timeout: timeout,
		logger:  log,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]cron.EntryID),
		specs:   make(map[string]string),
	}
}

// Add registers job. Names must be unique.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job name and func are required")
	}
	if _, dup := s.jobs[job.Name]; dup {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	id, err := s.cron.AddFunc(job.Spec, func() { s.execute(job) })
	if err != nil {
		return fmt.Errorf("job %q: invalid spec %q: %w", job.Name, job.Spec, err)
	}
	s.jobs[job.Name] = id
	s.specs[job.Name] = job.Spec
	s.logger.Info("Job registered", zap.String("job", job.Name), zap.String("spec", job.Spec))
	return nil
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop cancels running jobs and waits for them to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunNow runs the named job synchronously through the same overlap guard as
// scheduled ticks.
func (s *Scheduler) RunNow(name string) error {
	id, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	s.cron.Entry(id).WrappedJob.Run()
	return nil
}

// Entries lists registered jobs ordered by name.
func (s *Scheduler) Entries() []Entry {
	out := make([]Entry, 0, len(s.jobs))
	for name, id := range s.jobs {
		out = append(out, Entry{Name: name, Spec: s.specs[name], Next: s.cron.Entry(id).Next})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) execute(job Job) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	log := s.logger.With(zap.String("job", job.Name))
	ctx = logger.ContextWithLogger(ctx, log)

	log.Info("Job started")
	start := time.Now()
	err := job.Run(ctx)
	duration := time.Since(start)
	metrics.SchedulerRunDuration.WithLabelValues(job.Name).Observe(duration.Seconds())

	if err != nil {
		metrics.SchedulerRunsTotal.WithLabelValues(job.Name, "error").Inc()
		log.Error("Job failed", zap.Duration("duration", duration), zap.Error(err))
		return
	}
	metrics.SchedulerRunsTotal.WithLabelValues(job.Name, "success").Inc()
	log.Info("Job finished", zap.Duration("duration", duration))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
