// Package statemachine holds the canonical ScheduledTask status-transition
// table (§4.2) and the side effects attached to entering each state. It
// never touches the TaskStore itself: callers (SchedulerCore) install the
// returned Result into the store, so the state machine stays a pure
// function and is trivial to test in isolation.
package statemachine

import "github.com/gammadia/jobcore/internal/scheduler/types"

// Result is the outcome of applying a transition to one task.
type Result struct {
	// Allowed is false when the transition was rejected by the guard table;
	// in that case Task is the unmodified input and every other field is
	// zero.
	Allowed bool

	// Task is the task after the transition (a fresh copy; the input is
	// never mutated).
	Task *types.ScheduledTask

	// Reschedule, if non-nil, is a new PENDING task the caller must insert
	// into the store, carrying the terminal task's id as AncestorId.
	Reschedule *types.ScheduledTask

	// EnqueueKill is true when the caller must submit a driver kill to the
	// WorkQueue for Task.
	EnqueueKill bool
}

var terminal = map[types.Status]bool{
	types.FINISHED:         true,
	types.FAILED:           true,
	types.KILLED:           true,
	types.LOST:             true,
	types.KILLED_BY_CLIENT: true,
}

// allowed enumerates every guarded transition (§4.2). PENDING->STARTING is
// deliberately absent: it is driven by StartOnSlave, the only transition
// that needs extra data (the assigned slave) beyond the target status.
var allowed = map[types.Status]map[types.Status]bool{
	types.PENDING: {
		types.LOST:             true,
		types.KILLED_BY_CLIENT: true,
	},
	types.STARTING: {
		types.RUNNING:          true,
		types.FAILED:           true,
		types.KILLED:           true,
		types.LOST:             true,
		types.KILLED_BY_CLIENT: true,
	},
	types.RUNNING: {
		types.FINISHED:         true,
		types.FAILED:           true,
		types.KILLED:           true,
		types.LOST:             true,
		types.KILLED_BY_CLIENT: true,
	},
}

// StartOnSlave applies PENDING -> STARTING, recording the assigned slave.
// It is called from the offer matcher, never from setTaskStatus, since
// SchedulingFilter assignment is the only path that carries a slave id.
func StartOnSlave(t *types.ScheduledTask, slaveId, slaveHost string) Result {
	if t.Status != types.PENDING {
		return Result{Allowed: false, Task: t}
	}
	return Result{Allowed: true, Task: t.WithSlave(slaveId, slaveHost).WithStatus(types.STARTING)}
}

// Apply drives the state machine for t toward the requested status. nextId
// allocates the id of any replacement task this transition reschedules.
// Transitions out of a terminal state, or not present in the guard table,
// are rejected: Result.Allowed is false and Task is t unchanged
// (§8: testNoTransitionFromTerminalState).
func Apply(t *types.ScheduledTask, to types.Status, nextId types.IdAllocator) Result {
	if terminal[t.Status] {
		return Result{Allowed: false, Task: t}
	}
	if !allowed[t.Status][to] {
		return Result{Allowed: false, Task: t}
	}

	switch to {
	case types.RUNNING:
		return Result{Allowed: true, Task: t.WithStatus(types.RUNNING)}

	case types.LOST:
		// PENDING->LOST, STARTING->LOST and RUNNING->LOST always
		// reschedule without a failure-count increment, so the retry is
		// free (decided: Open Question (a), see DESIGN.md).
		next := t.WithStatus(types.LOST)
		reschedule := t.Reschedule(nextId(), t.FailureCount)
		return Result{Allowed: true, Task: next, Reschedule: reschedule}

	case types.KILLED:
		return Result{Allowed: true, Task: t.WithStatus(types.KILLED)}

	case types.FAILED:
		next := t.WithStatus(types.FAILED)
		failureCount := t.FailureCount + 1
		next = next.WithFailureCount(failureCount)
		if failureCount < t.Info.MaxTaskFailures {
			return Result{
				Allowed:    true,
				Task:       next,
				Reschedule: t.Reschedule(nextId(), failureCount),
			}
		}
		return Result{Allowed: true, Task: next}

	case types.FINISHED:
		next := t.WithStatus(types.FINISHED)
		if t.Info.Daemon {
			return Result{
				Allowed:    true,
				Task:       next,
				Reschedule: t.Reschedule(nextId(), t.FailureCount),
			}
		}
		return Result{Allowed: true, Task: next}

	case types.KILLED_BY_CLIENT:
		return Result{Allowed: true, Task: t.WithStatus(types.KILLED_BY_CLIENT), EnqueueKill: true}

	default:
		return Result{Allowed: false, Task: t}
	}
}
