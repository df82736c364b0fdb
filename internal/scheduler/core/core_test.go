package core

import (
	"sync"
	"testing"

	"github.com/gammadia/jobcore/internal/scheduler/reconciler"
	"github.com/gammadia/jobcore/internal/scheduler/types"
	"github.com/gammadia/jobcore/internal/scheduler/updateplanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type acceptAllFilter struct {
	accept func(resources types.VolatileResources, slaveHost string, task *types.ScheduledTask) bool
}

func (f *acceptAllFilter) MakeFilter(resources types.VolatileResources, slaveHost string) func(*types.ScheduledTask) bool {
	return func(t *types.ScheduledTask) bool {
		if f.accept == nil {
			return true
		}
		return f.accept(resources, slaveHost, t)
	}
}

type fakeDriver struct {
	mu     sync.Mutex
	killed []int64
}

func (d *fakeDriver) KillTask(taskId int64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.killed = append(d.killed, taskId)
	return 0
}

func (d *fakeDriver) killedIds() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int64(nil), d.killed...)
}

// syncWorkQueue runs work inline, making driver dispatch deterministic in
// tests without needing to wait on a real worker goroutine.
type syncWorkQueue struct{}

func (syncWorkQueue) DoWork(work func() bool) { work() }

type fakeLauncher struct {
	mu       sync.Mutex
	launched []types.JobConfiguration
}

func (f *fakeLauncher) LaunchUpdater(job types.JobConfiguration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launched = append(f.launched, job)
}

func (f *fakeLauncher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.launched)
}

func newTestCore() (*Core, *fakeDriver, *fakeLauncher) {
	driver := &fakeDriver{}
	launcher := &fakeLauncher{}
	c := New(Config{
		Filter:         &acceptAllFilter{},
		Driver:         driver,
		WorkQueue:      syncWorkQueue{},
		UpdateLauncher: launcher,
	})
	return c, driver, launcher
}

func taskInfo(shard int32, startCommand string) types.TaskInfo {
	return types.TaskInfo{StartCommand: startCommand, CPU: 1, MemoryMB: 128, ShardId: shard}
}

func tasksOf(t *testing.T, c *Core, key types.JobKey) []*types.ScheduledTask {
	t.Helper()
	return c.GetTasks(types.ByJob(key))
}

// advanceToRunning offers every PENDING task in the store to a slave and
// marks it RUNNING. key is accepted for readability at call sites even
// though Offer itself is not scoped to one job.
func advanceToRunning(t *testing.T, c *Core, key types.JobKey) {
	t.Helper()
	for {
		assignment, ok := c.Offer("slave-1", "host-1", types.VolatileResources{CPU: 100, MemoryMB: 100000})
		if !ok {
			break
		}
		c.SetTaskStatus(types.ByIds(assignment.TaskId), types.RUNNING)
	}
}

func TestCreateJobMaterializesTenDistinctPendingTasks(t *testing.T) {
	c, _, _ := newTestCore()
	defer c.Shutdown()

	tasks := make([]types.TaskInfo, 10)
	for i := range tasks {
		tasks[i] = taskInfo(int32(i), "run.sh")
	}
	job := types.JobConfiguration{Owner: "OWNER_A", Name: "JOB_A", Tasks: tasks}
	require.NoError(t, c.CreateJob(job))

	got := tasksOf(t, c, job.Key())
	require.Len(t, got, 10)
	ids := map[int64]bool{}
	shards := map[int32]bool{}
	for _, tk := range got {
		assert.Equal(t, types.PENDING, tk.Status)
		assert.Nil(t, tk.SlaveId)
		assert.False(t, ids[tk.Id])
		ids[tk.Id] = true
		shards[tk.ShardId()] = true
	}
	for shard := int32(0); shard < 10; shard++ {
		assert.True(t, shards[shard])
	}
}

func TestIncrementingTaskIdsAcrossOwners(t *testing.T) {
	c, _, _ := newTestCore()
	defer c.Shutdown()

	for i := 0; i < 10; i++ {
		owner := "A" + string(rune('0'+i))
		job := types.JobConfiguration{Owner: owner, Name: "job", Tasks: []types.TaskInfo{taskInfo(0, "run.sh")}}
		require.NoError(t, c.CreateJob(job))

		tasks := tasksOf(t, c, job.Key())
		require.Len(t, tasks, 1)
		assert.Equal(t, int64(i+1), tasks[0].Id)
	}
}

func TestScheduleFilterHonoredRejectsAllOffers(t *testing.T) {
	driver := &fakeDriver{}
	c := New(Config{
		Filter:    &acceptAllFilter{accept: func(types.VolatileResources, string, *types.ScheduledTask) bool { return false }},
		Driver:    driver,
		WorkQueue: syncWorkQueue{},
	})
	defer c.Shutdown()

	tasks := make([]types.TaskInfo, 10)
	for i := range tasks {
		tasks[i] = taskInfo(int32(i), "run.sh")
	}
	job := types.JobConfiguration{Owner: "ops", Name: "filtered", Tasks: tasks}
	require.NoError(t, c.CreateJob(job))

	for i := 0; i < 3; i++ {
		_, ok := c.Offer("slave-1", "host-1", types.VolatileResources{CPU: 4, MemoryMB: 4096})
		assert.False(t, ok)
	}

	got := tasksOf(t, c, job.Key())
	require.Len(t, got, 10)
	for _, tk := range got {
		assert.Equal(t, types.PENDING, tk.Status)
	}
}

func TestRestartTaskEnqueuesKillAndReschedules(t *testing.T) {
	c, driver, _ := newTestCore()
	defer c.Shutdown()

	job := types.JobConfiguration{Owner: "ops", Name: "etl", Tasks: []types.TaskInfo{taskInfo(0, "run.sh")}}
	require.NoError(t, c.CreateJob(job))
	advanceToRunning(t, c, job.Key())

	original := tasksOf(t, c, job.Key())[0]
	accepted := c.RestartTasks([]int64{original.Id})
	assert.Equal(t, []int64{original.Id}, accepted)
	assert.Contains(t, driver.killedIds(), original.Id)

	tasks := tasksOf(t, c, job.Key())
	require.Len(t, tasks, 2)

	var killedTask, freshTask *types.ScheduledTask
	for _, tk := range tasks {
		if tk.Id == original.Id {
			killedTask = tk
		} else {
			freshTask = tk
		}
	}
	require.NotNil(t, killedTask)
	require.NotNil(t, freshTask)
	assert.Equal(t, types.KILLED_BY_CLIENT, killedTask.Status)
	assert.Equal(t, types.PENDING, freshTask.Status)
	require.NotNil(t, freshTask.AncestorId)
	assert.Equal(t, original.Id, *freshTask.AncestorId)
	assert.Equal(t, original.ShardId(), freshTask.ShardId())
}

func TestDaemonRescheduleOnFinish(t *testing.T) {
	c, _, _ := newTestCore()
	defer c.Shutdown()

	daemonTasks := make([]types.TaskInfo, 5)
	nonDaemonTasks := make([]types.TaskInfo, 5)
	for i := 0; i < 5; i++ {
		daemonTasks[i] = taskInfo(int32(i), "run.sh")
		daemonTasks[i].Daemon = true
		nonDaemonTasks[i] = taskInfo(int32(i), "run.sh")
	}
	daemonJob := types.JobConfiguration{Owner: "ops", Name: "daemon", Tasks: daemonTasks}
	plainJob := types.JobConfiguration{Owner: "ops", Name: "plain", Tasks: nonDaemonTasks}
	require.NoError(t, c.CreateJob(daemonJob))
	require.NoError(t, c.CreateJob(plainJob))

	advanceToRunning(t, c, daemonJob.Key())
	advanceToRunning(t, c, plainJob.Key())

	for _, key := range []types.JobKey{daemonJob.Key(), plainJob.Key()} {
		for _, tk := range tasksOf(t, c, key) {
			c.SetTaskStatus(types.ByIds(tk.Id), types.FINISHED)
		}
	}

	allTasks := append(tasksOf(t, c, daemonJob.Key()), tasksOf(t, c, plainJob.Key())...)
	finished := 0
	pending := 0
	for _, tk := range allTasks {
		switch tk.Status {
		case types.FINISHED:
			finished++
		case types.PENDING:
			pending++
			require.NotNil(t, tk.AncestorId)
		}
	}
	assert.Equal(t, 10, finished)
	assert.Equal(t, 5, pending)
}

func TestFailureBudgetExhaustionAtCoreLevel(t *testing.T) {
	c, _, _ := newTestCore()
	defer c.Shutdown()

	info := taskInfo(0, "run.sh")
	info.MaxTaskFailures = 5
	job := types.JobConfiguration{Owner: "ops", Name: "flaky", Tasks: []types.TaskInfo{info}}
	require.NoError(t, c.CreateJob(job))

	for i := 0; i < 5; i++ {
		pending := c.GetTasks(types.ByJob(job.Key()).And(types.ByStatus(types.PENDING)))
		require.Len(t, pending, 1, "iteration %d", i)
		assignment, ok := c.Offer("slave-1", "host-1", types.VolatileResources{CPU: 10, MemoryMB: 10000})
		require.True(t, ok)
		c.SetTaskStatus(types.ByIds(assignment.TaskId), types.RUNNING)
		c.SetTaskStatus(types.ByIds(assignment.TaskId), types.FAILED)
	}

	allTasks := c.GetTasks(types.ByJob(job.Key()))
	failed := 0
	for _, tk := range allTasks {
		if tk.Status == types.FAILED {
			failed++
		}
	}
	assert.Equal(t, 5, failed)
	assert.Empty(t, c.GetTasks(types.ByJob(job.Key()).And(types.ByStatus(types.PENDING))))
}

func TestCrossSlaveReportIgnoredAtCoreLevel(t *testing.T) {
	c, _, _ := newTestCore()
	defer c.Shutdown()

	job1 := types.JobConfiguration{Owner: "ops", Name: "a", Tasks: []types.TaskInfo{taskInfo(0, "run.sh")}}
	job2 := types.JobConfiguration{Owner: "ops", Name: "b", Tasks: []types.TaskInfo{taskInfo(0, "run.sh")}}
	require.NoError(t, c.CreateJob(job1))
	require.NoError(t, c.CreateJob(job2))

	a1, ok := c.Offer("slave-1", "host-1", types.VolatileResources{CPU: 10, MemoryMB: 10000})
	require.True(t, ok)
	c.SetTaskStatus(types.ByIds(a1.TaskId), types.RUNNING)

	a2, ok := c.Offer("slave-2", "host-2", types.VolatileResources{CPU: 10, MemoryMB: 10000})
	require.True(t, ok)
	c.SetTaskStatus(types.ByIds(a2.TaskId), types.RUNNING)

	c.UpdateRegisteredTasks(reconciler.RegisteredTaskUpdate{
		SlaveHost: "host-2",
		Tasks:     []reconciler.ReportedTask{{TaskId: a1.TaskId, Status: types.FAILED}},
	})

	tk1, ok := c.store.GetById(a1.TaskId)
	require.True(t, ok)
	tk2, ok := c.store.GetById(a2.TaskId)
	require.True(t, ok)
	assert.Equal(t, types.RUNNING, tk1.Status)
	assert.Equal(t, types.RUNNING, tk2.Status)
}

func TestUpdatePlannerScenarios(t *testing.T) {
	c, _, launcher := newTestCore()
	defer c.Shutdown()

	job := types.JobConfiguration{Owner: "ops", Name: "etl", Tasks: []types.TaskInfo{taskInfo(0, "run.sh")}}
	require.NoError(t, c.CreateJob(job))
	advanceToRunning(t, c, job.Key())

	result, err := c.UpdateJob(job)
	require.NoError(t, err)
	assert.Equal(t, updateplanner.JobUnchanged, result)

	priorityOnly := job
	priorityOnly.Tasks = []types.TaskInfo{taskInfo(0, "run.sh")}
	priorityOnly.Tasks[0].Priority = 7
	result, err = c.UpdateJob(priorityOnly)
	require.NoError(t, err)
	assert.Equal(t, updateplanner.Completed, result)

	running := tasksOf(t, c, job.Key())[0]
	assert.Equal(t, types.RUNNING, running.Status)
	assert.Equal(t, int32(7), running.Info.Priority)

	startCommandChanged := job
	startCommandChanged.Tasks = []types.TaskInfo{taskInfo(0, "run2.sh")}
	result, err = c.UpdateJob(startCommandChanged)
	require.NoError(t, err)
	assert.Equal(t, updateplanner.UpdaterLaunched, result)
	assert.Equal(t, 1, launcher.count())
}

func TestCronUpdateReplacesStoredSchedule(t *testing.T) {
	c, _, _ := newTestCore()
	defer c.Shutdown()

	job := types.JobConfiguration{
		Owner: "ops", Name: "nightly", Tasks: []types.TaskInfo{taskInfo(0, "run.sh")},
		CronSchedule: "1 1 1 1 1",
	}
	require.NoError(t, c.CreateJob(job))

	updated := job
	updated.CronSchedule = "* * * * 1"
	result, err := c.UpdateJob(updated)
	require.NoError(t, err)
	assert.Equal(t, updateplanner.Completed, result)

	stored, ok := c.cronManager.Job(job.Key())
	require.True(t, ok)
	assert.Equal(t, "* * * * 1", stored.CronSchedule)
}
