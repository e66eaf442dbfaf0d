// Package health aggregates dependency checks for the /health endpoint.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/findfit/internal/domain/listing"
	"github.com/kailas-cloud/findfit/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DefaultCheckTimeout bounds each dependency check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status   Status
	Checks   map[string]CheckResult
	Listings *listing.Stats
}

// Deps are the checked dependencies. Cache and Stats may be nil.
type Deps struct {
	Database  Pinger
	Embedding EmbeddingChecker
	Cache     Pinger
	Stats     StatsReader
}

// Service coordinates health checks.
type Service struct {
	deps    Deps
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Service.
func New(deps Deps, timeout time.Duration, log *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{deps: deps, timeout: timeout, logger: log}
}

// Check runs all checks concurrently. Any failing check degrades the status.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]func(context.Context) error{
		"database": s.deps.Database.Ping,
	}
	if s.deps.Embedding != nil {
		checks["embedding"] = s.deps.Embedding.HealthCheck
	}
	if s.deps.Cache != nil {
		checks["cache"] = s.deps.Cache.Ping
	}

	report := Report{Status: Healthy, Checks: make(map[string]CheckResult, len(checks))}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := s.run(ctx, name, check)
			mu.Lock()
			report.Checks[name] = result
			if result == CheckError {
				report.Status = Degraded
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if s.deps.Stats != nil && report.Checks["database"] == CheckOK {
		statsCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if st, err := s.deps.Stats.Stats(statsCtx); err == nil {
			report.Listings = &st
		}
	}
	return report
}

func (s *Service) run(ctx context.Context, name string, check func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := check(ctx); err != nil {
		logger.FromContext(ctx, s.logger).Warn("Health check failed", zap.String("check", name), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
