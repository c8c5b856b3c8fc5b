package sync

import "time"

// Clock abstracts wall time so cool-down and retry bookkeeping are
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock implementation.
func SystemClock() Clock {
	return systemClock{}
}
