//go:build linux

package alarm

import (
	"time"

	"golang.org/x/sys/unix"
)

// linuxAlarm is a timerfd-backed Alarm against CLOCK_BOOTTIME, so it keeps
// counting across system suspend.
type linuxAlarm struct {
	fd     int
	notify chan struct{}
	closed chan struct{}
}

// New returns a timerfd-backed Alarm.
func New() (Alarm, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_BOOTTIME, unix.TFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
	a := &linuxAlarm{fd: fd, notify: make(chan struct{}, 1), closed: make(chan struct{})}
	go a.readLoop()
	return a, nil
}

func (a *linuxAlarm) readLoop() {
	buf := make([]byte, 8)
	for {
		n, err := unix.Read(a.fd, buf)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if n > 0 {
			select {
			case a.notify <- struct{}{}:
			case <-a.closed:
				return
			}
		}
	}
}

func (a *linuxAlarm) Reset(duration time.Duration) error {
	// A zero it_value would disarm the timerfd; arm it for the shortest
	// possible delay instead so a non-positive duration fires right away.
	ns := duration.Nanoseconds()
	if ns <= 0 {
		ns = 1
	}
	spec := unix.ItimerSpec{Value: unix.NsecToTimespec(ns)}
	return unix.TimerfdSettime(a.fd, 0, &spec, nil)
}

func (a *linuxAlarm) Expired() <-chan struct{} { return a.notify }

func (a *linuxAlarm) Close() error {
	close(a.closed)
	return unix.Close(a.fd)
}
