package cache_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kryli/TgAnalyzer/internal/cache"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetOrRunCachesResult(t *testing.T) {
	t.Parallel()

	c := cache.New(testLogger())
	var runs atomic.Int32

	run := func(ctx context.Context) (*cache.Entry, error) {
		runs.Add(1)
		return &cache.Entry{ReportPath: "/tmp/report.md", CreatedAt: time.Now()}, nil
	}

	first, err := c.GetOrRun(context.Background(), "mychat", run)
	if err != nil {
		t.Fatalf("GetOrRun() error: %v", err)
	}
	second, err := c.GetOrRun(context.Background(), "mychat", run)
	if err != nil {
		t.Fatalf("GetOrRun() error: %v", err)
	}

	if got := runs.Load(); got != 1 {
		t.Errorf("run executed %d times, want 1", got)
	}
	if first != second {
		t.Error("second request must return the cached entry")
	}
}

func TestGetOrRunSingleFlight(t *testing.T) {
	t.Parallel()

	c := cache.New(testLogger())
	var runs atomic.Int32
	release := make(chan struct{})

	run := func(ctx context.Context) (*cache.Entry, error) {
		runs.Add(1)
		<-release
		return &cache.Entry{ReportPath: "/tmp/report.md"}, nil
	}

	const callers = 10
	var wg sync.WaitGroup
	results := make([]*cache.Entry, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := c.GetOrRun(context.Background(), "samechat", run)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = entry
		}(i)
	}

	// Give the goroutines time to pile onto the in-flight run.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := runs.Load(); got != 1 {
		t.Errorf("run executed %d times under concurrency, want 1", got)
	}
	for i := 1; i < callers; i++ {
		if results[i] != results[0] {
			t.Errorf("caller %d received a different entry", i)
		}
	}
}

func TestGetOrRunDoesNotCacheFailures(t *testing.T) {
	t.Parallel()

	c := cache.New(testLogger())
	var runs atomic.Int32

	failing := func(ctx context.Context) (*cache.Entry, error) {
		runs.Add(1)
		return nil, errors.New("ingestion failed")
	}
	if _, err := c.GetOrRun(context.Background(), "badchat", failing); err == nil {
		t.Fatal("GetOrRun() must propagate run errors")
	}

	succeeding := func(ctx context.Context) (*cache.Entry, error) {
		runs.Add(1)
		return &cache.Entry{ReportPath: "/tmp/report.md"}, nil
	}
	entry, err := c.GetOrRun(context.Background(), "badchat", succeeding)
	if err != nil {
		t.Fatalf("retry after failure must run again: %v", err)
	}
	if entry == nil {
		t.Fatal("retry returned nil entry")
	}
	if got := runs.Load(); got != 2 {
		t.Errorf("run executed %d times, want 2 (failure then retry)", got)
	}
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	c := cache.New(testLogger())
	c.Put("chat", &cache.Entry{ReportPath: "/tmp/report.md"})

	if _, ok := c.Get("chat"); !ok {
		t.Fatal("entry should be present after Put")
	}
	c.Invalidate("chat")
	if _, ok := c.Get("chat"); ok {
		t.Error("entry should be gone after Invalidate")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	t.Parallel()

	c := cache.New(testLogger())
	var runs atomic.Int32
	run := func(ctx context.Context) (*cache.Entry, error) {
		runs.Add(1)
		return &cache.Entry{}, nil
	}

	if _, err := c.GetOrRun(context.Background(), "alpha", run); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetOrRun(context.Background(), "beta", run); err != nil {
		t.Fatal(err)
	}
	if got := runs.Load(); got != 2 {
		t.Errorf("distinct keys executed %d runs, want 2", got)
	}
}
