package sim

import (
	"container/heap"
	"time"
)

// Clock exposes read-only simulated time to processes that should not be
// able to schedule or dispatch events themselves.
type Clock interface {
	// Now returns the current simulated time as an offset from simulated
	// midnight of day zero.
	Now() time.Duration
}

// Scheduler is a single-threaded discrete-event scheduler. Processes are
// closures queued for a simulated timestamp; Run dispatches them in
// timestamp order, advancing the clock to each event as it fires. Events
// queued for the same timestamp dispatch in the order they were scheduled,
// so a run is fully deterministic.
//
// Because dispatch is strictly sequential, a callback runs to completion
// before any other event is observed: station mutations between two waits
// are atomic with respect to every other journey, with no locking.
type Scheduler struct {
	now     time.Duration
	horizon time.Duration
	seq     uint64
	queue   eventQueue
}

type event struct {
	at  time.Duration
	seq uint64
	fn  func()
}

// NewScheduler creates a scheduler whose clock starts at start and whose
// run terminates at start+duration.
func NewScheduler(start, duration time.Duration) *Scheduler {
	return &Scheduler{
		now:     start,
		horizon: start + duration,
	}
}

// Now returns the current simulated time.
func (s *Scheduler) Now() time.Duration { return s.now }

// Horizon returns the simulated timestamp at which Run stops.
func (s *Scheduler) Horizon() time.Duration { return s.horizon }

// Pending returns the number of undispatched events.
func (s *Scheduler) Pending() int { return len(s.queue) }

// After queues fn to run d after the current simulated time. Negative
// delays are clamped to zero.
func (s *Scheduler) After(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	s.At(s.now+d, fn)
}

// At queues fn for simulated timestamp t. Timestamps in the past are
// clamped to the current time.
func (s *Scheduler) At(t time.Duration, fn func()) {
	if t < s.now {
		t = s.now
	}
	s.seq++
	heap.Push(&s.queue, &event{at: t, seq: s.seq, fn: fn})
}

// Run dispatches events in timestamp order until the queue drains or the
// next event is due at or past the horizon. Events at or beyond the
// horizon are abandoned: still-suspended journeys simply stop, with no
// compensating actions. The clock finishes pinned at the horizon. Run
// returns the number of events dispatched.
func (s *Scheduler) Run() int {
	dispatched := 0
	for len(s.queue) > 0 {
		next := s.queue[0]
		if next.at >= s.horizon {
			break
		}
		heap.Pop(&s.queue)
		s.now = next.at
		next.fn()
		dispatched++
	}
	s.now = s.horizon
	return dispatched
}

// eventQueue orders events by timestamp, then by scheduling order.
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return ev
}

// hourOfDay maps a simulated offset to the 0-23 hour of day.
func hourOfDay(now time.Duration) int {
	return int(now/time.Hour) % 24
}

// untilNextHour returns the wait that lands exactly on the next hour
// boundary, or a full hour when already on one.
func untilNextHour(now time.Duration) time.Duration {
	return time.Hour - now%time.Hour
}
