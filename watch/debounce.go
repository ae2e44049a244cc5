package watch

import (
	"slices"
	"sync"
	"time"
)

// Debouncer collects keys and hands them to flush as one sorted, deduplicated
// batch once no new key has arrived for the interval.
type Debouncer struct {
	interval time.Duration
	flush    func(keys []string)

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool
}

func NewDebouncer(interval time.Duration, flush func(keys []string)) *Debouncer {
	return &Debouncer{
		interval: interval,
		flush:    flush,
		pending:  make(map[string]struct{}),
	}
}

// Add records key and restarts the quiet period
func (d *Debouncer) Add(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.pending[key] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	keys := make([]string, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	clear(d.pending)
	d.timer = nil
	d.mu.Unlock()

	slices.Sort(keys)
	d.flush(keys)
}

// Stop drops pending keys and cancels any scheduled flush
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	clear(d.pending)
}
