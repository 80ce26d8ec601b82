package queue

import "time"

// Clock abstracts time.Now so visibility-timeout behavior is testable
// with a controlled clock.
type Clock interface {
	Now() time.Time
}

// RealClock wraps time.Now()
type RealClock struct{}

// Now returns the current UTC time.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}
