package jobmanager

import "github.com/gammadia/jobcore/internal/scheduler/types"

// ImmediateJobManager owns every non-cron JobConfiguration. On acceptance
// it materializes one PENDING ScheduledTask per TaskInfo directly into the
// store (§4.3); it keeps no definition of its own, so ownership is simply
// "does the store still have an active task for this job key".
type ImmediateJobManager struct {
	store  types.Store
	nextId types.IdAllocator
}

func NewImmediateJobManager(store types.Store, nextId types.IdAllocator) *ImmediateJobManager {
	return &ImmediateJobManager{store: store, nextId: nextId}
}

func (m *ImmediateJobManager) Accepts(job types.JobConfiguration) bool {
	return !job.IsCron()
}

func (m *ImmediateJobManager) ReceiveJob(job types.JobConfiguration) error {
	tasks := make([]*types.ScheduledTask, len(job.Tasks))
	for i, info := range job.Tasks {
		tasks[i] = &types.ScheduledTask{
			Id:     m.nextId(),
			JobKey: job.Key(),
			Info:   info.Copy(),
			Status: types.PENDING,
		}
	}
	return m.store.Add(tasks)
}

func (m *ImmediateJobManager) HasJob(key types.JobKey) bool {
	return len(m.store.Fetch(types.ActiveQuery(key))) > 0
}

// DeleteJob is always a no-op: ImmediateJobManager owns no definition
// beyond the tasks themselves, which are removed through the TaskStore by
// SchedulerCore.killTasks.
func (m *ImmediateJobManager) DeleteJob(key types.JobKey) bool {
	return false
}
