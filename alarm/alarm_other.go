//go:build !linux

package alarm

import (
	"sync"
	"time"
)

// genericAlarm is a time.Timer-backed Alarm for platforms without
// timerfd. It does not track suspend time separately from wall time.
type genericAlarm struct {
	mu     sync.Mutex
	timer  *time.Timer
	notify chan struct{}
}

// New returns a time.Timer-backed Alarm.
func New() (Alarm, error) {
	return &genericAlarm{notify: make(chan struct{}, 1)}, nil
}

func (a *genericAlarm) Reset(duration time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(duration, func() {
		select {
		case a.notify <- struct{}{}:
		default:
		}
	})
	return nil
}

func (a *genericAlarm) Expired() <-chan struct{} { return a.notify }

func (a *genericAlarm) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
	}
	return nil
}
