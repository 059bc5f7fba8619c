// Package schedule runs periodic and delayed tasks behind an interface
// so that tests can drive time by hand.
package schedule

import (
	"sync"
	"time"
)

// A scheduled task. Stop is idempotent and never blocks on the task.
type Job interface {
	Stop()
}

type Scheduler interface {
	// Run task every interval until the job is stopped. The first run
	// happens one interval from now.
	Every(interval time.Duration, task func()) Job
	// Run task once after delay unless the job is stopped first.
	After(delay time.Duration, task func()) Job
}

// Wall-clock scheduler backed by time.Ticker and time.AfterFunc.
type TickerScheduler struct{}

func NewTickerScheduler() *TickerScheduler { return &TickerScheduler{} }

type tickerJob struct {
	once sync.Once
	stop chan struct{}
}

func (j *tickerJob) Stop() {
	j.once.Do(func() { close(j.stop) })
}

func (s *TickerScheduler) Every(interval time.Duration, task func()) Job {
	j := &tickerJob{stop: make(chan struct{})}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-j.stop:
				return
			case <-ticker.C:
				// A stop that raced with the tick wins.
				select {
				case <-j.stop:
					return
				default:
				}
				task()
			}
		}
	}()

	return j
}

type timerJob struct{ t *time.Timer }

func (j timerJob) Stop() { j.t.Stop() }

func (s *TickerScheduler) After(delay time.Duration, task func()) Job {
	return timerJob{t: time.AfterFunc(delay, task)}
}
