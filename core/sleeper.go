package core

import "time"

// Sleeper blocks the calling goroutine for a delay slice
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleepFunc is func type of Sleeper.
type SleepFunc func(time.Duration)

// Sleep implements Sleeper.
func (f SleepFunc) Sleep(d time.Duration) {
	f(d)
}

// SystemSleeper sleeps on the runtime timer
var SystemSleeper Sleeper = SleepFunc(time.Sleep)
