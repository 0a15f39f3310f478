// Package alarm implements a single-shot, re-armable wakeable timer for use
// where a suspended goroutine needs to resume either when a value arrives
// or when a deadline passes.
package alarm

import "time"

// Alarm is a single-shot timer that can be reset before or after it has
// fired. Reset rearms it relative to the call time, discarding whatever
// deadline was previously pending.
type Alarm interface {
	// Reset arms (or rearms) the alarm to fire once duration from now.
	Reset(duration time.Duration) error
	// Expired delivers one value each time the alarm fires. Readers should
	// select on it alongside whatever else they're waiting for.
	Expired() <-chan struct{}
	// Close releases the alarm's underlying resources. The alarm must not
	// be used afterward.
	Close() error
}
