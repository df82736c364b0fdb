// Package jobmanager implements the JobManager abstraction (§4.3): the
// chain of owners a submitted JobConfiguration is offered to, and the two
// concrete managers (immediate, cron).
package jobmanager

import (
	"github.com/gammadia/jobcore/internal/scheduler/types"
)

// Manager is implemented by each job owner in the Chain.
type Manager interface {
	// Accepts reports whether this manager is the right owner for job.
	Accepts(job types.JobConfiguration) bool

	// ReceiveJob materializes job under this manager's ownership. Callers
	// must have already confirmed no manager in the chain owns job.Key().
	ReceiveJob(job types.JobConfiguration) error

	// HasJob reports whether this manager currently owns key.
	HasJob(key types.JobKey) bool

	// DeleteJob removes key's definition from this manager, if owned. It
	// reports whether a definition existed.
	DeleteJob(key types.JobKey) bool
}

// Chain offers a job to its managers in priority order; the first that
// Accepts it takes ownership. A job key already owned by any manager in
// the chain is rejected as a duplicate (§4.3).
type Chain struct {
	managers []Manager
}

func NewChain(managers ...Manager) *Chain {
	return &Chain{managers: managers}
}

// ReceiveJob offers job to the chain. It fails with a *types.ScheduleError
// if the job key is already owned, or if no manager in the chain accepts
// the configuration.
func (c *Chain) ReceiveJob(job types.JobConfiguration) error {
	key := job.Key()
	for _, m := range c.managers {
		if m.HasJob(key) {
			return &types.ScheduleError{Job: key, Message: "job key already active"}
		}
	}
	for _, m := range c.managers {
		if m.Accepts(job) {
			return m.ReceiveJob(job)
		}
	}
	return &types.ScheduleError{Job: key, Message: "no manager accepted the job configuration"}
}

func (c *Chain) HasJob(key types.JobKey) bool {
	for _, m := range c.managers {
		if m.HasJob(key) {
			return true
		}
	}
	return false
}

// DeleteJob removes key's definition from whichever manager owns it. It
// reports whether a definition was found and removed.
func (c *Chain) DeleteJob(key types.JobKey) bool {
	for _, m := range c.managers {
		if m.DeleteJob(key) {
			return true
		}
	}
	return false
}
