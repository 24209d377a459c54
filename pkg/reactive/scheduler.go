package reactive

import (
	"runtime/debug"
	"strconv"
	"time"
)

// Job is a unit of deferred work. Jobs are deduplicated by pointer identity.
type Job struct {
	name    string
	fn      func()
	derived bool
}

// NewJob creates a regular job.
func NewJob(name string, fn func()) *Job {
	return &Job{name: name, fn: fn}
}

// NewDerivedJob creates a job that runs before every regular job of the
// same flush. Computed refreshes use derived jobs.
func NewDerivedJob(name string, fn func()) *Job {
	return &Job{name: name, fn: fn, derived: true}
}

// Name returns the job's name.
func (j *Job) Name() string {
	return j.name
}

// Derived reports whether the job runs in the derived phase.
func (j *Job) Derived() bool {
	return j.derived
}

// Scheduler is the batched job queue. Jobs enqueued during one task are
// flushed once, in a microtask, after the task returns.
type Scheduler struct {
	rt *Runtime

	queue  []*Job
	queued map[*Job]struct{}

	// flushPending is set while a flush microtask is queued but has not
	// yet taken its snapshot.
	flushPending bool
	flushing     bool
}

func newScheduler(rt *Runtime) *Scheduler {
	return &Scheduler{
		rt:     rt,
		queued: make(map[*Job]struct{}),
	}
}

// Enqueue adds job to the pending list unless it is already there and
// schedules a flush if none is scheduled.
func (s *Scheduler) Enqueue(job *Job) {
	s.rt.check()
	if _, ok := s.queued[job]; ok {
		return
	}
	s.queued[job] = struct{}{}
	s.queue = append(s.queue, job)

	if !s.flushPending {
		s.flushPending = true
		s.rt.QueueMicrotask(s.Flush)
	}
}

// Cancel removes a job that has not yet been taken by a flush.
// It reports whether the job was pending.
func (s *Scheduler) Cancel(job *Job) bool {
	if _, ok := s.queued[job]; !ok {
		return false
	}
	delete(s.queued, job)
	for i, j := range s.queue {
		if j == job {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	return true
}

// Pending returns the number of jobs waiting for the next flush.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// Flushing reports whether a flush is running.
func (s *Scheduler) Flushing() bool {
	return s.flushing
}

// Flush runs every pending job: derived jobs first, then the rest, each in
// enqueue order. Jobs enqueued while flushing go into a new cycle. A
// panicking job is logged and reported, and the flush continues.
func (s *Scheduler) Flush() {
	s.rt.check()
	s.flushPending = false

	jobs := s.queue
	s.queue = nil
	clear(s.queued)
	if len(jobs) == 0 {
		return
	}

	s.rt.observer.FlushStarted(len(jobs))
	start := time.Now()
	stats := FlushStats{Jobs: len(jobs)}

	s.flushing = true
	defer func() { s.flushing = false }()

	for _, job := range jobs {
		if job.derived {
			stats.Derived++
			if !s.runJob(job) {
				stats.Failed++
			}
		}
	}
	for _, job := range jobs {
		if !job.derived && !s.runJob(job) {
			stats.Failed++
		}
	}

	stats.Duration = time.Since(start)
	s.rt.observer.FlushFinished(stats)
}

func (s *Scheduler) runJob(job *Job) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err := panicError("R010", "job "+strconv.Quote(job.name), r)
			s.rt.logger.Error("job panic",
				"job", job.name,
				"error", err,
				"stack", string(debug.Stack()),
			)
			s.rt.observer.JobFailed(job.name, err)
		}
	}()
	job.fn()
	return true
}
