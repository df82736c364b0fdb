package reconciler

import (
	"testing"
	"time"

	"github.com/gammadia/jobcore/internal/scheduler/taskstore"
	"github.com/gammadia/jobcore/internal/scheduler/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idAllocator(start int64) types.IdAllocator {
	next := start
	return func() int64 {
		id := next
		next++
		return id
	}
}

func slaveHost(host string) *string { return &host }

func runningTaskOn(id int64, host string, heartbeat time.Time) *types.ScheduledTask {
	h := host
	return &types.ScheduledTask{
		Id:                    id,
		JobKey:                types.JobKey{Owner: "ops", Name: "etl"},
		Info:                  types.TaskInfo{ShardId: 0, MaxTaskFailures: 3},
		Status:                types.RUNNING,
		SlaveId:               &h,
		SlaveHost:             &h,
		LastHeartbeatUnixNano: heartbeat.UnixNano(),
	}
}

func TestReconcileDrivesStatusFromSlaveReport(t *testing.T) {
	store := taskstore.New()
	now := time.Unix(1000, 0)
	require.NoError(t, store.Add([]*types.ScheduledTask{runningTaskOn(1, "host-1", now)}))

	engine := NewEngine(store, idAllocator(100), func(int64) {}, WithClock(func() time.Time { return now }))
	engine.Reconcile(RegisteredTaskUpdate{
		SlaveHost: "host-1",
		Tasks:     []ReportedTask{{TaskId: 1, Status: types.FINISHED}},
	})

	tk, _ := store.GetById(1)
	assert.Equal(t, types.FINISHED, tk.Status)
}

func TestSlaveCannotModifyTasksForOtherSlave(t *testing.T) {
	store := taskstore.New()
	now := time.Unix(1000, 0)
	task1 := runningTaskOn(1, "host-1", now)
	task2 := runningTaskOn(2, "host-2", now)
	task1.JobKey = types.JobKey{Owner: "ops", Name: "a"}
	task2.JobKey = types.JobKey{Owner: "ops", Name: "b"}
	require.NoError(t, store.Add([]*types.ScheduledTask{task1, task2}))

	engine := NewEngine(store, idAllocator(100), func(int64) {}, WithClock(func() time.Time { return now }))
	engine.Reconcile(RegisteredTaskUpdate{
		SlaveHost: "host-2",
		Tasks:     []ReportedTask{{TaskId: 1, Status: types.FAILED}},
	})

	tk1, _ := store.GetById(1)
	tk2, _ := store.GetById(2)
	assert.Equal(t, types.RUNNING, tk1.Status, "host-2 must not modify host-1's task")
	assert.Equal(t, types.RUNNING, tk2.Status)
}

func TestMissingTaskBecomesLostAfterGracePeriod(t *testing.T) {
	store := taskstore.New()
	heartbeatTime := time.Unix(1000, 0)
	require.NoError(t, store.Add([]*types.ScheduledTask{runningTaskOn(1, "host-1", heartbeatTime)}))

	now := heartbeatTime.Add(1 * time.Minute)
	engine := NewEngine(store, idAllocator(100), func(int64) {},
		WithClock(func() time.Time { return now }),
		WithGracePeriod(30*time.Second),
	)
	engine.Reconcile(RegisteredTaskUpdate{SlaveHost: "host-1", Tasks: nil})

	tk, _ := store.GetById(1)
	assert.Equal(t, types.LOST, tk.Status)

	rescheduled := store.Fetch(types.ByStatus(types.PENDING))
	require.Len(t, rescheduled, 1)
	assert.Equal(t, int64(1), *rescheduled[0].AncestorId)
}

func TestMissingTaskWithinGracePeriodIsLeftAlone(t *testing.T) {
	store := taskstore.New()
	heartbeatTime := time.Unix(1000, 0)
	require.NoError(t, store.Add([]*types.ScheduledTask{runningTaskOn(1, "host-1", heartbeatTime)}))

	now := heartbeatTime.Add(10 * time.Second)
	engine := NewEngine(store, idAllocator(100), func(int64) {},
		WithClock(func() time.Time { return now }),
		WithGracePeriod(30*time.Second),
	)
	engine.Reconcile(RegisteredTaskUpdate{SlaveHost: "host-1", Tasks: nil})

	tk, _ := store.GetById(1)
	assert.Equal(t, types.RUNNING, tk.Status)
}

func TestReconcileUpdatesVolatileResourcesAndHeartbeat(t *testing.T) {
	store := taskstore.New()
	now := time.Unix(2000, 0)
	require.NoError(t, store.Add([]*types.ScheduledTask{runningTaskOn(1, "host-1", time.Unix(1000, 0))}))

	engine := NewEngine(store, idAllocator(100), func(int64) {}, WithClock(func() time.Time { return now }))
	engine.Reconcile(RegisteredTaskUpdate{
		SlaveHost: "host-1",
		Tasks: []ReportedTask{
			{TaskId: 1, Status: types.RUNNING, Resources: &types.VolatileResources{CPU: 2, MemoryMB: 512}},
		},
	})

	tk, _ := store.GetById(1)
	assert.Equal(t, 2.0, tk.Resources.CPU)
	assert.Equal(t, now.UnixNano(), tk.LastHeartbeatUnixNano)
}

func TestReconcileIgnoresUnknownTaskId(t *testing.T) {
	store := taskstore.New()
	engine := NewEngine(store, idAllocator(100), func(int64) {})
	assert.NotPanics(t, func() {
		engine.Reconcile(RegisteredTaskUpdate{
			SlaveHost: "host-1",
			Tasks:     []ReportedTask{{TaskId: 999, Status: types.RUNNING}},
		})
	})
}
