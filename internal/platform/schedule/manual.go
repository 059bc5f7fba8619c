package schedule

import (
	"sort"
	"sync"
	"time"
)

// Scheduler driven explicitly by Advance. Tasks run synchronously on the
// goroutine calling Advance, in due-time order.
type ManualScheduler struct {
	mu   sync.Mutex
	now  time.Duration
	seq  int
	jobs []*manualJob
}

type manualJob struct {
	s        *ManualScheduler
	seq      int
	next     time.Duration
	interval time.Duration
	task     func()
	stopped  bool
}

func NewManualScheduler() *ManualScheduler { return &ManualScheduler{} }

func (j *manualJob) Stop() {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	j.stopped = true
}

func (s *ManualScheduler) add(delay, interval time.Duration, task func()) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	j := &manualJob{s: s, seq: s.seq, next: s.now + delay, interval: interval, task: task}
	s.jobs = append(s.jobs, j)
	return j
}

func (s *ManualScheduler) Every(interval time.Duration, task func()) Job {
	return s.add(interval, interval, task)
}

func (s *ManualScheduler) After(delay time.Duration, task func()) Job {
	return s.add(delay, 0, task)
}

// Advance moves the clock forward by d, firing every task that becomes due.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		j := s.nextDue(target)
		if j == nil {
			break
		}
		j.task()
	}

	s.mu.Lock()
	s.now = target
	s.mu.Unlock()
}

// nextDue pops the earliest job due at or before target and reschedules
// periodic ones.
func (s *ManualScheduler) nextDue(target time.Duration) *manualJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.jobs[:0]
	for _, j := range s.jobs {
		if !j.stopped {
			live = append(live, j)
		}
	}
	s.jobs = live

	sort.SliceStable(s.jobs, func(a, b int) bool {
		if s.jobs[a].next == s.jobs[b].next {
			return s.jobs[a].seq < s.jobs[b].seq
		}
		return s.jobs[a].next < s.jobs[b].next
	})

	if len(s.jobs) == 0 || s.jobs[0].next > target {
		return nil
	}

	j := s.jobs[0]
	s.now = j.next
	if j.interval > 0 {
		j.next += j.interval
	} else {
		j.stopped = true
	}

	return j
}

// Pending reports the number of live jobs.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, j := range s.jobs {
		if !j.stopped {
			n++
		}
	}
	return n
}
