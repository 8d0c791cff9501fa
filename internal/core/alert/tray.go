// Package alert holds the transient surfaces a push notification drives:
// the toast tray, the audible cue, navigation to the target and the
// dwell timer that marks visible rows read.
package alert

import (
	"slices"
	"sync"
	"time"

	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/pkg/clock"
)

const defaultMaxAlerts = 5

// Alert is one visible toast.
type Alert struct {
	Notification notification.Notification
	ShownAt      time.Time
	Deadline     time.Time
}

// Tray holds active toasts. A toast closes at its deadline, on Dismiss, or
// when pushed out by newer toasts beyond the cap.
type Tray struct {
	clock   clock.Clocker
	timeout time.Duration
	max     int

	mu     sync.Mutex
	alerts []Alert
}

func NewTray(timeout time.Duration, c clock.Clocker) *Tray {
	if c == nil {
		c = clock.Real{}
	}
	return &Tray{clock: c, timeout: timeout, max: defaultMaxAlerts}
}

// SetTimeout changes the lifetime of toasts pushed from now on.
func (t *Tray) SetTimeout(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = d
}

// Push shows n. A toast already showing the same id is replaced. It
// returns the toasts evicted by the cap.
func (t *Tray) Push(n notification.Notification) (Alert, []Alert) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	a := Alert{Notification: n, ShownAt: now, Deadline: now.Add(t.timeout)}

	t.alerts = slices.DeleteFunc(t.alerts, func(x Alert) bool { return x.Notification.ID == n.ID })
	t.alerts = append(t.alerts, a)

	var evicted []Alert
	if over := len(t.alerts) - t.max; over > 0 {
		evicted = slices.Clone(t.alerts[:over])
		t.alerts = slices.Delete(t.alerts, 0, over)
	}
	return a, evicted
}

// Dismiss closes the toast for id.
func (t *Tray) Dismiss(id notification.ID) (Alert, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := slices.IndexFunc(t.alerts, func(x Alert) bool { return x.Notification.ID == id })
	if i < 0 {
		return Alert{}, false
	}
	a := t.alerts[i]
	t.alerts = slices.Delete(t.alerts, i, i+1)
	return a, true
}

// Expire closes every toast whose deadline has passed and returns them.
func (t *Tray) Expire() []Alert {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	var expired []Alert
	t.alerts = slices.DeleteFunc(t.alerts, func(x Alert) bool {
		if !now.Before(x.Deadline) {
			expired = append(expired, x)
			return true
		}
		return false
	})
	return expired
}

// Active returns the open toasts, oldest first.
func (t *Tray) Active() []Alert {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.alerts)
}

// Newest returns the most recent toast.
func (t *Tray) Newest() (Alert, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.alerts) == 0 {
		return Alert{}, false
	}
	return t.alerts[len(t.alerts)-1], true
}
