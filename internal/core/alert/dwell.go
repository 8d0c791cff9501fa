package alert

import (
	"sync"
	"time"

	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/pkg/clock"
)

// Dwell tracks how long each row has been continuously visible. A row
// that scrolls out before the threshold starts over next time.
type Dwell struct {
	clock     clock.Clocker
	threshold time.Duration

	mu    sync.Mutex
	since map[notification.ID]time.Time
	fired map[notification.ID]bool
}

func NewDwell(threshold time.Duration, c clock.Clocker) *Dwell {
	if c == nil {
		c = clock.Real{}
	}
	return &Dwell{
		clock:     c,
		threshold: threshold,
		since:     map[notification.ID]time.Time{},
		fired:     map[notification.ID]bool{},
	}
}

// Observe records the set of rows visible right now.
func (d *Dwell) Observe(visible []notification.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	seen := make(map[notification.ID]bool, len(visible))
	for _, id := range visible {
		seen[id] = true
		if _, ok := d.since[id]; !ok {
			d.since[id] = now
		}
	}
	for id := range d.since {
		if !seen[id] {
			delete(d.since, id)
			delete(d.fired, id)
		}
	}
}

// Due returns rows visible for at least the threshold. Each row is
// returned once per continuous visibility.
func (d *Dwell) Due() []notification.ID {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	var due []notification.ID
	for id, since := range d.since {
		if d.fired[id] || now.Sub(since) < d.threshold {
			continue
		}
		d.fired[id] = true
		due = append(due, id)
	}
	return due
}

// Reset forgets every row, as after a list refresh.
func (d *Dwell) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.since)
	clear(d.fired)
}
