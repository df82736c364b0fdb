// Package reconciler implements the Reconciliation Engine (§4.6): it
// reconciles a slave's self-reported task statuses against the TaskStore,
// drives the state machine for tasks the slave disagrees with, and detects
// tasks the slave has silently dropped.
package reconciler

import (
	"time"

	"github.com/gammadia/jobcore/internal/scheduler/statemachine"
	"github.com/gammadia/jobcore/internal/scheduler/types"
)

// ReportedTask is one entry of a slave's self-report.
type ReportedTask struct {
	TaskId    int64
	Status    types.Status
	Resources *types.VolatileResources
}

// RegisteredTaskUpdate is the input to Reconcile: a slave host's current
// view of every task it believes it is running (§6: ExecutorTracker /
// §4.6: RegisteredTaskUpdate).
type RegisteredTaskUpdate struct {
	SlaveHost string
	Tasks     []ReportedTask
}

// Engine holds the collaborators the reconciliation algorithm needs. All
// calls are expected to happen from the single scheduler-lock holder, so
// Engine does no locking of its own.
type Engine struct {
	store       types.Store
	nextId      types.IdAllocator
	gracePeriod time.Duration
	clock       func() time.Time
	enqueueKill func(taskId int64)
}

// Option customizes an Engine beyond its required collaborators.
type Option func(*Engine)

// WithClock overrides time.Now, for deterministic tests of the grace
// period.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// DefaultGracePeriod is how long a task may go unreported by its slave
// before the engine transitions it to LOST. The source left this
// unspecified (§9 Open Questions); 2 minutes matches the heartbeat cadence
// the rest of the pack uses for liveness timeouts.
const DefaultGracePeriod = 2 * time.Minute

func NewEngine(store types.Store, nextId types.IdAllocator, enqueueKill func(taskId int64), opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		nextId:      nextId,
		gracePeriod: DefaultGracePeriod,
		clock:       time.Now,
		enqueueKill: enqueueKill,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithGracePeriod overrides DefaultGracePeriod.
func WithGracePeriod(d time.Duration) Option {
	return func(e *Engine) { e.gracePeriod = d }
}

// Reconcile runs the four-step algorithm of §4.6 against one slave's
// report.
func (e *Engine) Reconcile(update RegisteredTaskUpdate) {
	now := e.clock().UnixNano()
	reported := make(map[int64]bool, len(update.Tasks))

	for _, rt := range update.Tasks {
		task, ok := e.store.GetById(rt.TaskId)
		if !ok {
			continue
		}
		if task.SlaveHost == nil || *task.SlaveHost != update.SlaveHost {
			// a slave cannot modify tasks it does not own
			// (§8: testSlaveCannotModifyTasksForOtherSlave)
			continue
		}
		reported[rt.TaskId] = true

		if task.Status != rt.Status {
			e.driveTransition(task, rt.Status)
			task, _ = e.store.GetById(rt.TaskId)
		}

		e.store.Mutate(types.ByIds(rt.TaskId), func(t *types.ScheduledTask) *types.ScheduledTask {
			if rt.Resources != nil {
				t = t.WithResources(*rt.Resources)
			}
			return t.WithHeartbeat(now)
		})
	}

	expected := e.store.Fetch(types.AllTasks().Where(func(t *types.ScheduledTask) bool {
		return t.SlaveHost != nil && *t.SlaveHost == update.SlaveHost &&
			(t.Status == types.STARTING || t.Status == types.RUNNING)
	}))

	for _, t := range expected {
		if reported[t.Id] {
			continue
		}
		missingSince := time.Duration(now - t.LastHeartbeatUnixNano)
		if missingSince < e.gracePeriod {
			continue
		}
		e.driveTransition(t, types.LOST)
	}
}

func (e *Engine) driveTransition(task *types.ScheduledTask, to types.Status) {
	result := statemachine.Apply(task, to, e.nextId)
	if !result.Allowed {
		return
	}
	e.store.Mutate(types.ByIds(task.Id), func(*types.ScheduledTask) *types.ScheduledTask {
		return result.Task
	})
	if result.Reschedule != nil {
		_ = e.store.Add([]*types.ScheduledTask{result.Reschedule})
	}
	if result.EnqueueKill && e.enqueueKill != nil {
		e.enqueueKill(task.Id)
	}
}
