package mutate

import "time"

// Clock supplies the updatedAt stamp applied to every mutated record.
// Production code uses SystemClock; tests use testutil.DeterministicClock
// so stamps are reproducible.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
