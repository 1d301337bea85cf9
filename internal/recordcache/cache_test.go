package recordcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/fithub/records/internal/metrics"
	"github.com/fithub/records/internal/models"
	"github.com/fithub/records/internal/pr"
)

func history() []models.TrainingRecord {
	return []models.TrainingRecord{
		{ID: 1, Date: "2024-01-01", Exercises: []models.TrainingRecordExercise{
			{Name: "Bench", Sets: []models.TrainingSet{{Weight: 100, Reps: 5}}},
		}},
		{ID: 2, Date: "2024-01-08", Exercises: []models.TrainingRecordExercise{
			{Name: "Bench", Sets: []models.TrainingSet{{Weight: 105, Reps: 3}}},
		}},
	}
}

type countingLoader struct {
	calls   atomic.Int32
	records []models.TrainingRecord
	err     error
	gate    chan struct{}
}

func (l *countingLoader) LoadRecords(ctx context.Context) ([]models.TrainingRecord, error) {
	l.calls.Add(1)
	if l.gate != nil {
		select {
		case <-l.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return l.records, l.err
}

// TestGetCalculates verifies a miss loads records and computes PRs.
func TestGetCalculates(t *testing.T) {
	m := metrics.NewTestManager()
	loader := &countingLoader{records: history()}
	c := New(loader, 0, m)

	snap, err := c.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Records) != 2 {
		t.Errorf("got %d records, want 2", len(snap.Records))
	}
	if !snap.Result.PRs[pr.NewKey("2024-01-08", "Bench", 0)].IsCurrentMaxPR {
		t.Error("2024-01-08 Bench set 0 should be the current max-weight PR")
	}
	if got := testutil.ToFloat64(m.PRCalculations); got != 1 {
		t.Errorf("pr_calculations_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PREntries); got != 2 {
		t.Errorf("pr_entries = %v, want 2", got)
	}

	if _, err := c.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, want 1 (second Get should hit)", got)
	}
}

// TestInvalidateReloads verifies Invalidate forces the next Get to reload.
func TestInvalidateReloads(t *testing.T) {
	loader := &countingLoader{records: history()}
	c := New(loader, 0, nil)

	if _, err := c.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.Invalidate()
	if c.Peek() != nil {
		t.Error("Peek after Invalidate should be nil")
	}
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := loader.calls.Load(); got != 2 {
		t.Errorf("loader calls = %d, want 2", got)
	}
}

// TestTTLExpiry verifies snapshots older than the TTL are reloaded.
func TestTTLExpiry(t *testing.T) {
	loader := &countingLoader{records: history()}
	c := New(loader, time.Minute, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, err := c.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	now = now.Add(30 * time.Second)
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := loader.calls.Load(); got != 1 {
		t.Fatalf("loader calls = %d, want 1 within TTL", got)
	}

	now = now.Add(time.Minute)
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := loader.calls.Load(); got != 2 {
		t.Errorf("loader calls = %d, want 2 after TTL", got)
	}
}

// TestConcurrentMissesCollapse verifies simultaneous misses share one load.
func TestConcurrentMissesCollapse(t *testing.T) {
	loader := &countingLoader{records: history(), gate: make(chan struct{})}
	c := New(loader, 0, nil)

	const callers = 8
	var wg sync.WaitGroup
	snaps := make([]*Snapshot, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := c.Get(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			snaps[i] = s
		}()
	}

	// Let the first caller enter the loader before releasing it.
	for loader.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(loader.gate)
	wg.Wait()

	if got := loader.calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, want 1", got)
	}
	for i, s := range snaps {
		if s != snaps[0] {
			t.Errorf("caller %d got a different snapshot", i)
		}
	}
}

// TestLoadErrorNotCached verifies a failed load is retried by the next Get.
func TestLoadErrorNotCached(t *testing.T) {
	boom := errors.New("backend down")
	loader := &countingLoader{err: boom}
	c := New(loader, 0, nil)

	if _, err := c.Get(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	loader.err = nil
	loader.records = history()
	snap, err := c.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Records) != 2 {
		t.Errorf("got %d records, want 2", len(snap.Records))
	}
}

// TestInvalidateDuringLoad verifies a load racing an Invalidate is not kept.
func TestInvalidateDuringLoad(t *testing.T) {
	loader := &countingLoader{records: history(), gate: make(chan struct{})}
	c := New(loader, 0, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := c.Get(context.Background()); err != nil {
			t.Error(err)
		}
	}()
	for loader.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	c.Invalidate()
	close(loader.gate)
	<-done

	if c.Peek() != nil {
		t.Error("snapshot loaded before Invalidate should not be cached")
	}
}

// TestCancelledCallerDoesNotFailOthers verifies that a caller giving up on
// a shared load leaves the load running for the callers still waiting.
func TestCancelledCallerDoesNotFailOthers(t *testing.T) {
	loader := &countingLoader{records: history(), gate: make(chan struct{})}
	c := New(loader, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx)
		firstErr <- err
	}()
	for loader.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	type result struct {
		snap *Snapshot
		err  error
	}
	second := make(chan result, 1)
	go func() {
		s, err := c.Get(context.Background())
		second <- result{s, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("first caller err = %v, want context.Canceled", err)
	}

	close(loader.gate)
	got := <-second
	if got.err != nil {
		t.Fatalf("second caller err = %v", got.err)
	}
	if len(got.snap.Records) != 2 {
		t.Errorf("got %d records, want 2", len(got.snap.Records))
	}
	if n := loader.calls.Load(); n != 1 {
		t.Errorf("loader calls = %d, want 1", n)
	}
	if c.Peek() == nil {
		t.Error("completed load should be cached")
	}
}

// TestLoaderFunc verifies the function adapter.
func TestLoaderFunc(t *testing.T) {
	c := New(LoaderFunc(func(context.Context) ([]models.TrainingRecord, error) {
		return nil, nil
	}), 0, nil)

	snap, err := c.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Result.PRs) != 0 {
		t.Errorf("empty history produced %d PRs", len(snap.Result.PRs))
	}
}
