// Package eventloop runs callbacks one at a time on a single goroutine,
// either against the wall clock or against a virtual clock that jumps
// straight to the next deadline.
package eventloop

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

type timer struct {
	at        time.Time
	seq       uint64
	f         func()
	cancelled bool
	index     int
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Loop serialises posted work and timers. Post and Schedule are safe to
// call from any goroutine; callbacks always run on the goroutine that
// drives the loop.
type Loop struct {
	mu      sync.Mutex
	timers  timerHeap
	posted  []func()
	seq     uint64
	stopped bool
	wake    chan struct{}

	virtual bool
	now     time.Time
}

// New creates a Loop on the wall clock. Drive it with Run.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// NewVirtual creates a Loop whose clock starts at start and only moves
// when a timer fires. Drive it with RunVirtual.
func NewVirtual(start time.Time) *Loop {
	return &Loop{wake: make(chan struct{}, 1), virtual: true, now: start}
}

// Now returns the loop's current time.
func (l *Loop) Now() time.Time {
	if !l.virtual {
		return time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// Post queues f to run on the loop after already-posted work.
func (l *Loop) Post(f func()) {
	l.mu.Lock()
	l.posted = append(l.posted, f)
	l.mu.Unlock()
	l.signal()
}

// Schedule runs f on the loop once d has elapsed. The returned cancel is
// safe to call more than once and from any goroutine.
func (l *Loop) Schedule(d time.Duration, f func()) (cancel func()) {
	l.mu.Lock()
	l.seq++
	t := &timer{at: l.clock().Add(d), seq: l.seq, f: f}
	heap.Push(&l.timers, t)
	l.mu.Unlock()
	l.signal()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if t.cancelled || t.index < 0 {
			return
		}
		t.cancelled = true
		heap.Remove(&l.timers, t.index)
	}
}

// Pending returns the number of posted callbacks and live timers.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.posted) + len(l.timers)
}

// Stop makes Run and RunVirtual return after the callback in progress.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
	l.signal()
}

// Run drives a wall-clock loop until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		f, wait, ok := l.next(time.Now())
		if !ok {
			return nil
		}
		if f != nil {
			f()
			continue
		}

		var (
			tm     *time.Timer
			expiry <-chan time.Time
		)
		if wait >= 0 {
			tm = time.NewTimer(wait)
			expiry = tm.C
		}
		select {
		case <-ctx.Done():
			if tm != nil {
				tm.Stop()
			}
			return ctx.Err()
		case <-l.wake:
		case <-expiry:
		}
		if tm != nil {
			tm.Stop()
		}
	}
}

// RunVirtual drives a virtual loop until it is idle, Stop is called, or
// the next timer lies beyond limit from the time RunVirtual was entered.
// It returns the number of callbacks run.
func (l *Loop) RunVirtual(limit time.Duration) int {
	l.mu.Lock()
	end := l.now.Add(limit)
	l.mu.Unlock()

	n := 0
	for {
		l.mu.Lock()
		if l.stopped {
			l.mu.Unlock()
			return n
		}
		if len(l.posted) > 0 {
			f := l.shift()
			l.mu.Unlock()
			f()
			n++
			continue
		}
		if len(l.timers) == 0 || l.timers[0].at.After(end) {
			l.mu.Unlock()
			return n
		}
		t := heap.Pop(&l.timers).(*timer)
		l.now = t.at
		l.mu.Unlock()
		t.f()
		n++
	}
}

// next returns the next callback due at now. When nothing is due it
// returns the wait until the earliest timer, or -1 if there is none. ok
// is false once the loop is stopped.
func (l *Loop) next(now time.Time) (f func(), wait time.Duration, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return nil, 0, false
	}
	if len(l.posted) > 0 {
		return l.shift(), 0, true
	}
	if len(l.timers) == 0 {
		return nil, -1, true
	}
	if t := l.timers[0]; !t.at.After(now) {
		heap.Pop(&l.timers)
		return t.f, 0, true
	}
	return nil, l.timers[0].at.Sub(now), true
}

func (l *Loop) shift() func() {
	f := l.posted[0]
	l.posted[0] = nil
	l.posted = l.posted[1:]
	return f
}

// clock must be called with mu held.
func (l *Loop) clock() time.Time {
	if l.virtual {
		return l.now
	}
	return time.Now()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
