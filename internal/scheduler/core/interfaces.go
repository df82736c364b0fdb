package core

import "github.com/gammadia/jobcore/internal/scheduler/types"

// Driver dispatches kill operations to the executing infrastructure (§6).
// The return value is logged, never used for correctness: the subsequent
// slave status report is what drives the state machine forward.
type Driver interface {
	KillTask(taskId int64) int
}

// Persistence is a blob store SchedulerCore uses to save and recover its
// state across restarts (§6). It knows nothing about the shape of the
// bytes it stores.
type Persistence interface {
	Save(data []byte) error
	Load() ([]byte, error)
}

// SchedulingFilter builds the per-offer acceptance predicate the resource
// offer matcher applies to the PENDING set (§4.5, §6).
type SchedulingFilter interface {
	MakeFilter(resources types.VolatileResources, slaveHost string) func(*types.ScheduledTask) bool
}

// WorkQueue is the deferred-work executor kill dispatches are enqueued on,
// keeping external I/O off the scheduler lock (§5).
type WorkQueue interface {
	DoWork(work func() bool)
}

// ExecutorStatus is one liveness report from an executor.
type ExecutorStatus struct {
	SlaveHost string
	Healthy   bool
}

// ExecutorTracker watches executor liveness and notifies the core when an
// executor restarts, so reconciliation can be re-triggered (§6).
type ExecutorTracker interface {
	Start(onRestart func(slaveHost string))
	AddStatus(status ExecutorStatus)
}
