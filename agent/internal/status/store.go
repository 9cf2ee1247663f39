package status

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/obsidianstack/composite/pkg/composite"
	"github.com/obsidianstack/composite/pkg/types"
)

// Run is the outcome of one composite invocation, as reported by the runner.
type Run struct {
	Name      string
	Output    types.MetricDescriptor
	Inputs    int
	Started   time.Time
	Took      time.Duration
	Result    types.Result
	RequestID string
	Err       error
}

// Entry is the accumulated state of one composite.
type Entry struct {
	Name          string
	Output        string
	Inputs        int
	Runs          int
	Failures      int
	LastRun       time.Time
	LastDuration  time.Duration
	LastSuccess   time.Time
	LastError     string
	LastErrorKind string
	LastResult    *types.Result
	RequestID     string
	UpdatedAt     time.Time
}

// Store is a thread-safe in-memory status store, keyed by composite name.
// A background goroutine (Run) periodically evicts entries that have not
// been updated within the configured TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// TTL returns the eviction window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Record folds r into the entry for r.Name, creating it if needed.
func (s *Store) Record(r Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[r.Name]
	if !ok {
		e = &Entry{Name: r.Name}
		s.data[r.Name] = e
	}
	e.Output = r.Output.String()
	e.Inputs = r.Inputs
	e.Runs++
	e.LastRun = r.Started
	e.LastDuration = r.Took
	e.UpdatedAt = s.now()

	if r.Err != nil {
		e.Failures++
		e.LastError = r.Err.Error()
		e.LastErrorKind = composite.Kind(r.Err)
		return
	}
	res := r.Result
	e.LastSuccess = r.Started
	e.LastError = ""
	e.LastErrorKind = ""
	e.LastResult = &res
	e.RequestID = r.RequestID
}

// Get returns a copy of the entry for name and whether it exists and is within
// the TTL.
func (s *Store) Get(name string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[name]
	if !ok || !e.UpdatedAt.After(s.now().Add(-s.ttl)) {
		return Entry{}, false
	}
	return *e, true
}

// List returns copies of all entries within the TTL, sorted by name.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.UpdatedAt.After(cutoff) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Remove deletes the entry for name. Used when a reload drops a composite.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for name, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, name)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// (minimum 1 second) and blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("status: evicted stale entries", "count", n)
			}
		}
	}
}
