package keyed

import "time"

// Stats summarizes one reconciliation cycle.
type Stats struct {
	// Cycle counts cycles per reconciler, starting at 1.
	Cycle uint64

	// Rows is the length of the new sequence.
	Rows int

	Reused   int
	Inserted int
	Moved    int
	Removed  int

	Duration time.Duration
}

// Changed reports whether the cycle touched the tree.
func (s Stats) Changed() bool {
	return s.Inserted+s.Moved+s.Removed > 0
}

// Observer is notified around each reconciliation cycle.
type Observer interface {
	// StartCycle is called before a cycle begins. The returned function
	// is called once the cycle has finished, with err set if it failed.
	StartCycle(region string) (finish func(stats Stats, err error))
}

// ObserverFunc adapts a completion function to Observer.
type ObserverFunc func(region string, stats Stats, err error)

// StartCycle implements Observer.
func (f ObserverFunc) StartCycle(region string) func(Stats, error) {
	return func(s Stats, err error) {
		f(region, s, err)
	}
}
