package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/findfit/internal/domain/listing"
)

// --- Mocks ---

type mockPinger struct {
	err   error
	delay time.Duration
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

type mockStats struct {
	stats listing.Stats
	err   error
}

func (m *mockStats) Stats(_ context.Context) (listing.Stats, error) { return m.stats, m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(Deps{
		Database:  &mockPinger{},
		Embedding: &mockEmbeddingChecker{},
		Cache:     &mockPinger{},
		Stats:     &mockStats{stats: listing.Stats{Total: 10, Embedded: 7}},
	}, 0, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"database", "embedding", "cache"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
	if r.Listings == nil || r.Listings.Embedded != 7 {
		t.Errorf("expected listing stats, got %+v", r.Listings)
	}
}

func TestCheck_DBError(t *testing.T) {
	svc := New(Deps{
		Database:  &mockPinger{err: errors.New("conn refused")},
		Embedding: &mockEmbeddingChecker{},
		Stats:     &mockStats{},
	}, 0, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
	if r.Listings != nil {
		t.Error("stats must be skipped when the database is down")
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(Deps{Database: &mockPinger{}, Embedding: &mockEmbeddingChecker{err: errors.New("timeout")}}, 0, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["embedding"] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks["embedding"])
	}
}

func TestCheck_OptionalDepsOmitted(t *testing.T) {
	r := New(Deps{Database: &mockPinger{}}, 0, nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["cache"]; ok {
		t.Error("cache check must be absent when no cache is configured")
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check must be absent when no checker is configured")
	}
}

func TestCheck_SlowCheckTimesOut(t *testing.T) {
	svc := New(Deps{Database: &mockPinger{}, Cache: &mockPinger{delay: time.Second}}, 20*time.Millisecond, nil)

	start := time.Now()
	r := svc.Check(context.Background())
	if time.Since(start) > 500*time.Millisecond {
		t.Error("check did not honor timeout")
	}
	if r.Checks["cache"] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks["cache"])
	}
}
