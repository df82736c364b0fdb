// Package crontrigger is the external cron trigger clock CronJobManager
// depends on (§4.3, §6). No cron-expression parser is wired into this
// module: the clock fires every registered cron job on each tick of a
// fixed interval rather than interpreting each job's CronSchedule string.
// A real deployment would replace this with a library that computes each
// job's next fire time from its expression; this adapter exists so the
// firing path (JobLister -> Trigger.CronTriggered) is exercised end to
// end without that dependency.
package crontrigger

import (
	"sync"
	"time"

	"github.com/gammadia/jobcore/internal/scheduler/types"
)

// JobLister exposes the currently registered cron definitions.
// CronJobManager implements this.
type JobLister interface {
	Jobs() []types.JobConfiguration
}

// Trigger fires one cron job. SchedulerCore's CronJobManager implements
// this via its CronTriggered method.
type Trigger interface {
	CronTriggered(key types.JobKey)
}

// Clock ticks at a fixed interval, firing every job the lister currently
// knows about.
type Clock struct {
	interval time.Duration
	lister   JobLister
	trigger  Trigger

	stop chan struct{}
	wg   sync.WaitGroup
}

func New(interval time.Duration, lister JobLister, trigger Trigger) *Clock {
	return &Clock{
		interval: interval,
		lister:   lister,
		trigger:  trigger,
		stop:     make(chan struct{}),
	}
}

// Start begins ticking in a background goroutine.
func (c *Clock) Start() {
	c.wg.Add(1)
	go c.run()
}

func (c *Clock) run() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, job := range c.lister.Jobs() {
				c.trigger.CronTriggered(job.Key())
			}
		case <-c.stop:
			return
		}
	}
}

// Stop halts the clock and waits for its goroutine to exit.
func (c *Clock) Stop() {
	close(c.stop)
	c.wg.Wait()
}
