// Package quota implements per-tenant admission control with a sliding
// window of W seconds (default 60) split into 12 sub-buckets, and per-key
// request-rate limiting on top of the tenant decision.
package quota

import (
	"context"
	"sync"
	"time"

	"github.com/thirdeye/overseer/internal/models"
)

// SubBucketCount is the number of sub-buckets the window is split into.
const SubBucketCount = 12

// Manager is the tenant-quota admission authority. Tenant checks always
// precede per-key checks; see KeyLimiter for the latter.
type Manager interface {
	CheckAndIncrement(ctx context.Context, tenantID string, limit int64) (*models.AdmissionDecision, error)
	GetUsage(ctx context.Context, tenantID string) (int64, error)
	SetLimit(ctx context.Context, tenantID string, limit int64)
	Reset(ctx context.Context, tenantID string) error
}

type slidingWindow struct {
	mu          sync.Mutex
	buckets     [SubBucketCount]int64
	bucketStart [SubBucketCount]int64 // unix seconds this bucket's window started
	limit       int64
	window      time.Duration
}

func newSlidingWindow(window time.Duration, limit int64) *slidingWindow {
	return &slidingWindow{limit: limit, window: window}
}

func (w *slidingWindow) bucketWidth() int64 {
	width := w.window / SubBucketCount
	if width <= 0 {
		width = time.Second
	}
	return int64(width / time.Second)
}

// checkAndIncrement atomically sums the non-stale buckets and admits if
// sum+1 <= limit, incrementing the bucket for "now" on admission.
func (w *slidingWindow) checkAndIncrement(now time.Time) (admitted bool, usage int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	width := w.bucketWidth()
	nowSec := now.Unix()
	idx := int((nowSec / width) % SubBucketCount)
	windowStart := nowSec - int64(w.window/time.Second)

	var sum int64
	for i := 0; i < SubBucketCount; i++ {
		if w.bucketStart[i] < windowStart {
			w.buckets[i] = 0
			w.bucketStart[i] = 0
			continue
		}
		sum += w.buckets[i]
	}

	if sum+1 > w.limit {
		return false, sum
	}

	if w.bucketStart[idx] < (nowSec/width)*width {
		w.bucketStart[idx] = (nowSec / width) * width
		w.buckets[idx] = 0
	}
	w.buckets[idx]++
	return true, sum + 1
}

func (w *slidingWindow) usage(now time.Time) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	windowStart := now.Unix() - int64(w.window/time.Second)
	var sum int64
	for i := 0; i < SubBucketCount; i++ {
		if w.bucketStart[i] >= windowStart {
			sum += w.buckets[i]
		}
	}
	return sum
}

func (w *slidingWindow) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buckets = [SubBucketCount]int64{}
	w.bucketStart = [SubBucketCount]int64{}
}

// MemoryManager keeps one slidingWindow per tenant in a sync.Map, the same
// lock-free-lookup/LoadOrStore-on-miss idiom the teacher used for per-user
// rate limiters.
type MemoryManager struct {
	windows sync.Map // tenantID -> *slidingWindow
	window  time.Duration
}

func NewMemoryManager(window time.Duration) *MemoryManager {
	return &MemoryManager{window: window}
}

func (m *MemoryManager) getOrCreate(tenantID string, limit int64) *slidingWindow {
	if w, ok := m.windows.Load(tenantID); ok {
		return w.(*slidingWindow)
	}
	w := newSlidingWindow(m.window, limit)
	actual, _ := m.windows.LoadOrStore(tenantID, w)
	return actual.(*slidingWindow)
}

func (m *MemoryManager) CheckAndIncrement(ctx context.Context, tenantID string, limit int64) (*models.AdmissionDecision, error) {
	w := m.getOrCreate(tenantID, limit)
	admitted, usage := w.checkAndIncrement(time.Now())
	return &models.AdmissionDecision{Admitted: admitted, CurrentUsage: usage, Limit: limit}, nil
}

func (m *MemoryManager) GetUsage(ctx context.Context, tenantID string) (int64, error) {
	if w, ok := m.windows.Load(tenantID); ok {
		return w.(*slidingWindow).usage(time.Now()), nil
	}
	return 0, nil
}

func (m *MemoryManager) SetLimit(ctx context.Context, tenantID string, limit int64) {
	w := m.getOrCreate(tenantID, limit)
	w.mu.Lock()
	w.limit = limit
	w.mu.Unlock()
}

func (m *MemoryManager) Reset(ctx context.Context, tenantID string) error {
	if w, ok := m.windows.Load(tenantID); ok {
		w.(*slidingWindow).reset()
	}
	return nil
}

// SweepIdle drops tenant windows that have had no traffic for a full
// window, bounding the sync.Map's growth under a long-running process
// with a rotating tenant population. The RedisManager needs no
// equivalent: its sub-buckets carry their own TTL.
func (m *MemoryManager) SweepIdle(now time.Time) int {
	windowStart := now.Unix() - int64(m.window/time.Second)
	removed := 0
	m.windows.Range(func(key, value any) bool {
		w := value.(*slidingWindow)
		w.mu.Lock()
		idle := true
		for _, start := range w.bucketStart {
			if start >= windowStart {
				idle = false
				break
			}
		}
		w.mu.Unlock()
		if idle {
			m.windows.Delete(key)
			removed++
		}
		return true
	})
	return removed
}
