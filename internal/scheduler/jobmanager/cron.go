package jobmanager

import (
	"sync"

	"github.com/gammadia/jobcore/internal/scheduler/types"
)

// KillActiveFunc transitions every active task of key to KILLED_BY_CLIENT
// and enqueues the matching driver kills. It is supplied by SchedulerCore
// at construction so CronJobManager never references it directly, per the
// decision to replace the source's manager->core back-reference with an
// explicit, downward-only callback (§9 DESIGN NOTES).
type KillActiveFunc func(key types.JobKey)

// CronJobManager owns every cron-scheduled JobConfiguration. Acceptance
// only stores the definition; materialization happens on CronTriggered,
// driven by an external cron trigger clock (§4.3, §6).
type CronJobManager struct {
	mu         sync.RWMutex
	jobs       map[types.JobKey]types.JobConfiguration
	store      types.Store
	nextId     types.IdAllocator
	killActive KillActiveFunc
}

func NewCronJobManager(store types.Store, nextId types.IdAllocator, killActive KillActiveFunc) *CronJobManager {
	return &CronJobManager{
		jobs:       make(map[types.JobKey]types.JobConfiguration),
		store:      store,
		nextId:     nextId,
		killActive: killActive,
	}
}

func (m *CronJobManager) Accepts(job types.JobConfiguration) bool {
	return job.IsCron()
}

func (m *CronJobManager) ReceiveJob(job types.JobConfiguration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.Key()] = job.Copy()
	return nil
}

func (m *CronJobManager) HasJob(key types.JobKey) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.jobs[key]
	return ok
}

// DeleteJob removes key's stored definition. It succeeds even if no live
// tasks exist for the job (§4.3: "does not fail merely because no live
// tasks exist").
func (m *CronJobManager) DeleteJob(key types.JobKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[key]; !ok {
		return false
	}
	delete(m.jobs, key)
	return true
}

// Job returns the stored definition for key, if any.
func (m *CronJobManager) Job(key types.JobKey) (types.JobConfiguration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[key]
	return job, ok
}

// Jobs returns every cron definition currently owned, for snapshotting.
func (m *CronJobManager) Jobs() []types.JobConfiguration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]types.JobConfiguration, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// Replace overwrites the stored definition for an already-owned key,
// without touching any live task. It backs the UpdatePlanner's cron
// COMPLETED case (§4.7: "If O is cron-scheduled: replace the stored
// JobConfiguration, COMPLETED").
func (m *CronJobManager) Replace(job types.JobConfiguration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.Key()] = job.Copy()
}

// CronTriggered fires a scheduled job: materializing fresh PENDING tasks,
// subject to the collision policy when active tasks of the job already
// exist (§4.3). It is a no-op if key names no cron job, which can happen
// if the job was deleted between the trigger firing and this call being
// reached under the scheduler lock.
func (m *CronJobManager) CronTriggered(key types.JobKey) {
	m.mu.RLock()
	cfg, ok := m.jobs[key]
	m.mu.RUnlock()
	if !ok {
		return
	}

	active := m.store.Fetch(types.ActiveQuery(key))
	if len(active) == 0 {
		m.materialize(cfg)
		return
	}

	switch cfg.CollisionPolicy {
	case types.KillExisting:
		m.killActive(key)
		m.materialize(cfg)
	case types.CancelNew:
		// skip this firing entirely
	case types.RunOverlap:
		m.materialize(cfg)
	}
}

func (m *CronJobManager) materialize(cfg types.JobConfiguration) {
	tasks := make([]*types.ScheduledTask, len(cfg.Tasks))
	for i, info := range cfg.Tasks {
		tasks[i] = &types.ScheduledTask{
			Id:     m.nextId(),
			JobKey: cfg.Key(),
			Info:   info.Copy(),
			Status: types.PENDING,
		}
	}
	_ = m.store.Add(tasks)
}
