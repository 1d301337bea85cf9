// Package recordcache holds the latest workout history together with its
// personal record calculation. Mutations invalidate it and the next read
// recomputes from scratch.
package recordcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fithub/records/internal/metrics"
	"github.com/fithub/records/internal/models"
	"github.com/fithub/records/internal/pr"
)

// loadTimeout bounds a shared load once it no longer follows a caller's context.
const loadTimeout = 30 * time.Second

// Loader supplies the full record history.
type Loader interface {
	LoadRecords(ctx context.Context) ([]models.TrainingRecord, error)
}

// Snapshot is an immutable view of the history and its PRs.
type Snapshot struct {
	Records   []models.TrainingRecord
	Result    *pr.Result
	FetchedAt time.Time
}

// Cache serves snapshots, collapsing concurrent reloads into one.
type Cache struct {
	loader  Loader
	ttl     time.Duration
	metrics *metrics.Manager
	now     func() time.Time

	group singleflight.Group

	mu         sync.RWMutex
	snap       *Snapshot
	generation uint64
}

// New creates a Cache. A ttl of zero keeps snapshots until Invalidate.
// m may be nil.
func New(loader Loader, ttl time.Duration, m *metrics.Manager) *Cache {
	return &Cache{
		loader:  loader,
		ttl:     ttl,
		metrics: m,
		now:     time.Now,
	}
}

// Get returns the current snapshot, loading and recalculating on a miss.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	snap, gen := c.snap, c.generation
	c.mu.RUnlock()

	if snap != nil && !c.expired(snap) {
		return snap, nil
	}

	// The load is shared by every caller that joins it, so it must outlive
	// any single caller's context.
	ch := c.group.DoChan(fmt.Sprint(gen), func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return c.load(lctx, gen)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Peek returns the current snapshot without loading. It is nil after
// Invalidate or before the first Get.
func (c *Cache) Peek() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Invalidate drops the snapshot so the next Get reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.generation++
	c.mu.Unlock()
}

func (c *Cache) expired(s *Snapshot) bool {
	return c.ttl > 0 && c.now().Sub(s.FetchedAt) >= c.ttl
}

func (c *Cache) load(ctx context.Context, gen uint64) (*Snapshot, error) {
	records, err := c.loader.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}

	snap := &Snapshot{
		Records:   records,
		Result:    pr.Calculate(records),
		FetchedAt: c.now(),
	}
	if c.metrics != nil {
		c.metrics.PRCalculations.Inc()
		c.metrics.PREntries.Set(float64(len(snap.Result.PRs)))
	}

	c.mu.Lock()
	// An Invalidate during the load means the data may predate the write.
	if c.generation == gen {
		c.snap = snap
	}
	c.mu.Unlock()

	return snap, nil
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context) ([]models.TrainingRecord, error)

func (f LoaderFunc) LoadRecords(ctx context.Context) ([]models.TrainingRecord, error) {
	return f(ctx)
}
