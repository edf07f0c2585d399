package folio

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Entry is a cached value with the time it was populated.
type Entry[V any] struct {
	Value     V         `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry[V]) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.Timestamp) < ttl
}

// Store is a key/value table of cache entries.
//
// A Store does not expire entries itself: freshness is decided by the cache
// reading it, from the entry's Timestamp. Implementations must be safe for
// concurrent use, and return a value and its timestamp together.
type Store[V any] interface {
	Get(ctx context.Context, key string) (e Entry[V], ok bool, err error)
	Put(ctx context.Context, key string, e Entry[V]) error
}

// MemoryStore is an in-process Store. Its content is lost on restart.
type MemoryStore[V any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[V]
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore[V any]() *MemoryStore[V] {
	return &MemoryStore[V]{entries: make(map[string]Entry[V])}
}

func (s *MemoryStore[V]) Get(_ context.Context, key string) (Entry[V], bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

func (s *MemoryStore[V]) Put(_ context.Context, key string, e Entry[V]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = e
	return nil
}

// keyedMutex serializes operations on the same key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

// Lock locks key and returns the function to unlock it.
func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = new(keyLock)
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// options shared by the caches and the write queue.
type options struct {
	ttl         time.Duration
	now         func() time.Time
	log         zerolog.Logger
	concurrency int
	queueSize   int
}

// Option configures a QuoteCache, a PortfolioCache, a WriteQueue or a Tracker.
type Option func(*options)

// WithTTL sets the time-to-live of cache entries.
func WithTTL(ttl time.Duration) Option { return func(o *options) { o.ttl = ttl } }

// WithClock replaces time.Now, used to decide entries freshness.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.log = l } }

// WithConcurrency sets the maximum number of concurrent quote lookups.
func WithConcurrency(n int) Option { return func(o *options) { o.concurrency = n } }

// WithQueueSize sets the number of pending writes the write queue can hold.
func WithQueueSize(n int) Option { return func(o *options) { o.queueSize = n } }

func newOptions(ttl time.Duration, opts []Option) options {
	o := options{
		ttl:         ttl,
		now:         time.Now,
		log:         zerolog.Nop(),
		concurrency: MaxQuoteLookups,
		queueSize:   DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
