package listview

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/vxplore/Clinik-pe-sub000/internal/observability/metrics"
)

// ErrStale is returned for a load that was superseded by a newer load of the
// same page before it completed.
var ErrStale = errors.New("listview: response superseded by a newer request")

// Tracker issues monotonic sequence numbers per (session, page). Beginning a
// load cancels the previous in-flight load for the same pair, and only the
// latest load's result is accepted.
type Tracker struct {
	mu      sync.Mutex
	next    uint64
	latest  map[string]uint64
	cancels map[string]context.CancelFunc
	metrics *metrics.DashboardMetrics
}

func NewTracker(m *metrics.DashboardMetrics) *Tracker {
	return &Tracker{
		latest:  make(map[string]uint64),
		cancels: make(map[string]context.CancelFunc),
		metrics: m,
	}
}

// Ticket identifies one load.
type Ticket struct {
	tracker *Tracker
	key     string
	page    string
	seq     uint64
	cancel  context.CancelFunc
}

func trackerKey(session, page string) string { return session + "|" + page }

// Begin starts a load and returns a context the caller must use for it.
func (t *Tracker) Begin(ctx context.Context, session, page string) (context.Context, *Ticket) {
	ctx, cancel := context.WithCancel(ctx)
	key := trackerKey(session, page)

	t.mu.Lock()
	if prev, ok := t.cancels[key]; ok {
		prev()
	}
	t.next++
	seq := t.next
	t.latest[key] = seq
	t.cancels[key] = cancel
	t.mu.Unlock()

	return ctx, &Ticket{tracker: t, key: key, page: page, seq: seq, cancel: cancel}
}

// Current reports whether tk is still the latest load for its page.
func (tk *Ticket) Current() bool {
	tk.tracker.mu.Lock()
	defer tk.tracker.mu.Unlock()
	return tk.tracker.latest[tk.key] == tk.seq
}

// Finish releases the load and returns ErrStale when it was superseded.
func (tk *Ticket) Finish() error {
	t := tk.tracker
	t.mu.Lock()
	current := t.latest[tk.key] == tk.seq
	if current {
		delete(t.cancels, tk.key)
		delete(t.latest, tk.key)
	}
	t.mu.Unlock()
	tk.cancel()

	if !current {
		t.metrics.ObserveStale(tk.page)
		return ErrStale
	}
	return nil
}

// Forget drops all state of a session and cancels its in-flight loads.
func (t *Tracker) Forget(session string) {
	prefix := session + "|"
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, cancel := range t.cancels {
		if strings.HasPrefix(key, prefix) {
			cancel()
			delete(t.cancels, key)
		}
	}
	for key := range t.latest {
		if strings.HasPrefix(key, prefix) {
			delete(t.latest, key)
		}
	}
}

// Load runs fetch under a new ticket. A result that arrives after a newer
// load began is discarded with ErrStale, whatever fetch returned.
func Load[T any](ctx context.Context, t *Tracker, session, page string, fetch func(context.Context) (T, error)) (T, error) {
	ctx, tk := t.Begin(ctx, session, page)
	v, err := fetch(ctx)
	if staleErr := tk.Finish(); staleErr != nil {
		var zero T
		return zero, staleErr
	}
	return v, err
}
