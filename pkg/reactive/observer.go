package reactive

import "time"

// FlushStats summarizes one scheduler flush.
type FlushStats struct {
	// Jobs is the number of jobs in the flush snapshot.
	Jobs int
	// Derived is how many of them were derived jobs.
	Derived int
	// Failed is how many jobs panicked.
	Failed int
	// Duration is the wall time spent running jobs.
	Duration time.Duration
}

// Observer receives scheduler lifecycle events.
// Implementations are called on the runtime's goroutine and must not block.
type Observer interface {
	FlushStarted(pending int)
	JobFailed(job string, err error)
	FlushFinished(stats FlushStats)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) FlushStarted(int)         {}
func (NopObserver) JobFailed(string, error)  {}
func (NopObserver) FlushFinished(FlushStats) {}

type multiObserver []Observer

// Observers fans events out to each non-nil observer in order.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) FlushStarted(pending int) {
	for _, o := range m {
		o.FlushStarted(pending)
	}
}

func (m multiObserver) JobFailed(job string, err error) {
	for _, o := range m {
		o.JobFailed(job, err)
	}
}

func (m multiObserver) FlushFinished(stats FlushStats) {
	for _, o := range m {
		o.FlushFinished(stats)
	}
}
