// Package updateplanner implements the Update Planner (§4.7): given a
// job's previous and newly-submitted configuration, it decides whether the
// change is a no-op, applies in place, or requires a rolling update.
package updateplanner

import (
	"fmt"

	"github.com/gammadia/jobcore/internal/scheduler/configmanager"
	"github.com/gammadia/jobcore/internal/scheduler/statemachine"
	"github.com/gammadia/jobcore/internal/scheduler/types"
)

// JobUpdateResult is the outcome SchedulerCore.updateJob returns to its
// caller (§4.4).
type JobUpdateResult int

const (
	JobUnchanged JobUpdateResult = iota
	JobUnchangedCron
	Completed
	UpdaterLaunched
)

func (r JobUpdateResult) String() string {
	switch r {
	case JobUnchanged:
		return "JOB_UNCHANGED"
	case JobUnchangedCron:
		return "JOB_UNCHANGED_CRON"
	case Completed:
		return "COMPLETED"
	case UpdaterLaunched:
		return "UPDATER_LAUNCHED"
	default:
		return "UNKNOWN"
	}
}

// CronReplacer overwrites a cron job's stored definition in place, without
// touching any live task. CronJobManager implements this.
type CronReplacer interface {
	Replace(job types.JobConfiguration)
}

// UpdateLauncher starts a rolling update of a job's running tasks toward a
// new configuration (§6). Out of core scope beyond invocation.
type UpdateLauncher interface {
	LaunchUpdater(job types.JobConfiguration)
}

// Deps bundles the planner's collaborators.
type Deps struct {
	Store        types.Store
	NextId       types.IdAllocator
	CronReplacer CronReplacer
	Launcher     UpdateLauncher
	// EnqueueKill submits a driver kill for taskId to the WorkQueue. It is
	// called for every task the planner transitions to KILLED_BY_CLIENT.
	EnqueueKill func(taskId int64)
}

// Plan diffs old against new (same job key required) and applies whatever
// the diff calls for, returning the outcome SchedulerCore.updateJob
// reports to its caller.
func Plan(old, new types.JobConfiguration, deps Deps) (JobUpdateResult, error) {
	if old.Key() != new.Key() {
		return 0, fmt.Errorf("updateplanner: old and new job keys differ (%s vs %s)", old.Key(), new.Key())
	}

	populatedOld := configmanager.Populate(old)
	populatedNew := configmanager.Populate(new)

	if populatedOld.Equal(populatedNew) {
		if old.IsCron() {
			return JobUnchangedCron, nil
		}
		return JobUnchanged, nil
	}

	if old.IsCron() {
		deps.CronReplacer.Replace(populatedNew)
		return Completed, nil
	}

	if canApplyInPlace(populatedOld, populatedNew) {
		applyInPlace(populatedOld, populatedNew, deps)
		return Completed, nil
	}

	deps.Launcher.LaunchUpdater(populatedNew)
	return UpdaterLaunched, nil
}

func shardMap(job types.JobConfiguration) map[int32]types.TaskInfo {
	m := make(map[int32]types.TaskInfo, len(job.Tasks))
	for _, t := range job.Tasks {
		m[t.ShardId] = t
	}
	return m
}

// canApplyInPlace reports whether every shard retained between old and new
// differs only in non-runtime fields (priority, max_task_failures). Added
// or removed shards never block an in-place update; a changed
// StartCommand/CPU/MemoryMB/DiskMB/Daemon on a retained shard does.
func canApplyInPlace(old, new types.JobConfiguration) bool {
	oldByShard := shardMap(old)
	newByShard := shardMap(new)
	for shard, newTask := range newByShard {
		oldTask, ok := oldByShard[shard]
		if !ok {
			continue
		}
		if !oldTask.EqualIgnoringRuntimeFields(newTask) {
			return false
		}
	}
	return true
}

func applyInPlace(old, new types.JobConfiguration, deps Deps) {
	key := new.Key()
	oldByShard := shardMap(old)
	newByShard := shardMap(new)

	for shard := range oldByShard {
		if _, retained := newByShard[shard]; retained {
			continue
		}
		active := deps.Store.Fetch(types.ActiveQuery(key).Where(func(t *types.ScheduledTask) bool {
			return t.ShardId() == shard
		}))
		for _, tk := range active {
			killActiveTask(tk, deps)
		}
	}

	for shard, info := range newByShard {
		latest := latestTaskForShard(deps.Store, key, shard)
		if latest == nil {
			deps.Store.Add([]*types.ScheduledTask{{
				Id: deps.NextId(), JobKey: key, Info: info.Copy(), Status: types.PENDING,
			}})
			continue
		}
		if latest.Status.Active() {
			deps.Store.Mutate(types.ByIds(latest.Id), func(t *types.ScheduledTask) *types.ScheduledTask {
				return t.WithInfo(info)
			})
			continue
		}
		if latest.Status.Terminal() {
			deps.Store.Add([]*types.ScheduledTask{{
				Id: deps.NextId(), JobKey: key, Info: info.Copy(), Status: types.PENDING,
			}})
		}
	}
}

func latestTaskForShard(store types.Store, key types.JobKey, shard int32) *types.ScheduledTask {
	tasks := store.Fetch(types.ByJob(key).Where(func(t *types.ScheduledTask) bool {
		return t.ShardId() == shard
	}))
	var latest *types.ScheduledTask
	for _, t := range tasks {
		if latest == nil || t.Id > latest.Id {
			latest = t
		}
	}
	return latest
}

func killActiveTask(task *types.ScheduledTask, deps Deps) {
	result := statemachine.Apply(task, types.KILLED_BY_CLIENT, deps.NextId)
	if !result.Allowed {
		return
	}
	deps.Store.Mutate(types.ByIds(task.Id), func(*types.ScheduledTask) *types.ScheduledTask {
		return result.Task
	})
	if result.EnqueueKill && deps.EnqueueKill != nil {
		deps.EnqueueKill(task.Id)
	}
}
