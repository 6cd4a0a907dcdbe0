package clock

import (
	"container/heap"
	"time"
)

// Token identifies a scheduled task. The zero Token is never issued.
type Token uint64

type task struct {
	token Token
	at    time.Time
	seq   uint64
	fn    func(now time.Time)
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// Scheduler runs callbacks at deadlines when driven by RunDue. It never
// starts goroutines; callbacks execute on the caller's goroutine, so the
// owner of a Scheduler decides what runs concurrently with what.
type Scheduler struct {
	queue   taskHeap
	live    map[Token]*task
	next    Token
	seq     uint64
	running bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{live: make(map[Token]*task)}
}

// At schedules fn to run once at or after t.
func (s *Scheduler) At(t time.Time, fn func(now time.Time)) Token {
	s.next++
	s.seq++
	tk := &task{token: s.next, at: t, seq: s.seq, fn: fn}
	s.live[tk.token] = tk
	heap.Push(&s.queue, tk)
	return tk.token
}

// After schedules fn to run d after now.
func (s *Scheduler) After(now time.Time, d time.Duration, fn func(now time.Time)) Token {
	return s.At(now.Add(d), fn)
}

// Cancel reports whether the task was still pending.
func (s *Scheduler) Cancel(tok Token) bool {
	if _, ok := s.live[tok]; !ok {
		return false
	}
	delete(s.live, tok)
	return true
}

func (s *Scheduler) CancelAll() {
	s.live = make(map[Token]*task)
	s.queue = s.queue[:0]
}

func (s *Scheduler) Pending() int {
	return len(s.live)
}

// NextDeadline returns the earliest pending deadline.
func (s *Scheduler) NextDeadline() (time.Time, bool) {
	s.dropCancelled()
	if len(s.queue) == 0 {
		return time.Time{}, false
	}
	return s.queue[0].at, true
}

// RunDue runs every pending task whose deadline is not after now, in
// deadline order, and returns how many ran. Each callback receives its own
// deadline as the current time. Tasks scheduled by a callback with a
// deadline not after now run in the same call.
func (s *Scheduler) RunDue(now time.Time) int {
	if s.running {
		return 0
	}
	s.running = true
	defer func() { s.running = false }()

	ran := 0
	for {
		s.dropCancelled()
		if len(s.queue) == 0 || s.queue[0].at.After(now) {
			return ran
		}
		tk := heap.Pop(&s.queue).(*task)
		delete(s.live, tk.token)
		tk.fn(tk.at)
		ran++
	}
}

func (s *Scheduler) dropCancelled() {
	for len(s.queue) > 0 {
		if _, ok := s.live[s.queue[0].token]; ok {
			return
		}
		heap.Pop(&s.queue)
	}
}
