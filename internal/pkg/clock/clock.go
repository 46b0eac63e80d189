// Package clock lets expiry logic read time through an interface. Production
// code uses System; tests use Manual to step past a passcode's TTL.
package clock

import "time"

type Clocker interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func New() System { return System{} }

func (System) Now() time.Time { return time.Now() }
