// Package core implements SchedulerCore (§4.4): the single-writer
// scheduling loop that ties the TaskStore, state machine, job managers,
// reconciliation engine and update planner together behind one exclusive
// scheduler lock.
//
// The lock is not a sync.Mutex. Every mutating public method submits a
// closure to a channel drained by one goroutine (run), the same pattern
// the rest of the module's ancestry uses for its own scheduling loop:
// a single select over an operations channel and a stop channel. This
// keeps every invariant that spans multiple entities (a transition, a
// reschedule, an index update) trivially atomic without fine-grained
// locking.
package core

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gammadia/jobcore/internal/scheduler/configmanager"
	"github.com/gammadia/jobcore/internal/scheduler/jobmanager"
	"github.com/gammadia/jobcore/internal/scheduler/reconciler"
	"github.com/gammadia/jobcore/internal/scheduler/statemachine"
	"github.com/gammadia/jobcore/internal/scheduler/taskstore"
	"github.com/gammadia/jobcore/internal/scheduler/types"
	"github.com/gammadia/jobcore/internal/scheduler/updateplanner"
)

// Assignment is the launch descriptor returned by Offer when a PENDING
// task is matched to a slave.
type Assignment struct {
	TaskId    int64
	SlaveId   string
	SlaveHost string
	Info      types.TaskInfo
}

// Config bundles the collaborators SchedulerCore needs. Filter, Driver,
// Persistence, WorkQueue and UpdateLauncher are all optional at
// construction and can be nil for a core that only exercises the pure
// scheduling logic (as the test suite does); Registered and driver-backed
// operations require them to have been supplied or bound later.
type Config struct {
	Filter         SchedulingFilter
	Driver         Driver
	Persistence    Persistence
	WorkQueue      WorkQueue
	UpdateLauncher updateplanner.UpdateLauncher
	GracePeriod    time.Duration
	Logger         *slog.Logger
}

// Core is SchedulerCore.
type Core struct {
	store types.Store

	idCounter int64

	cronManager      *jobmanager.CronJobManager
	immediateManager *jobmanager.ImmediateJobManager
	chain            *jobmanager.Chain
	configs          map[types.JobKey]types.JobConfiguration

	filter         SchedulingFilter
	driver         Driver
	persistence    Persistence
	workQueue      WorkQueue
	updateLauncher updateplanner.UpdateLauncher
	reconciler     *reconciler.Engine

	frameworkId string

	logger *slog.Logger

	ops  chan func()
	stop chan struct{}
	done chan struct{}
}

// New builds a Core and starts its single-writer loop.
func New(cfg Config) *Core {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Core{
		store:          taskstore.New(),
		configs:        make(map[types.JobKey]types.JobConfiguration),
		filter:         cfg.Filter,
		driver:         cfg.Driver,
		persistence:    cfg.Persistence,
		workQueue:      cfg.WorkQueue,
		updateLauncher: cfg.UpdateLauncher,
		logger:         cfg.Logger.With("component", "scheduler-core"),
		ops:            make(chan func()),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	c.immediateManager = jobmanager.NewImmediateJobManager(c.store, c.nextId)
	c.cronManager = jobmanager.NewCronJobManager(c.store, c.nextId, c.killActiveTasksOfJob)
	c.chain = jobmanager.NewChain(c.immediateManager, c.cronManager)

	reconcilerOpts := []reconciler.Option{}
	if cfg.GracePeriod > 0 {
		reconcilerOpts = append(reconcilerOpts, reconciler.WithGracePeriod(cfg.GracePeriod))
	}
	c.reconciler = reconciler.NewEngine(c.store, c.nextId, c.enqueueDriverKill, reconcilerOpts...)

	go c.run()
	return c
}

// Shutdown stops the core's loop and waits for it to drain.
func (c *Core) Shutdown() {
	close(c.stop)
	<-c.done
}

func (c *Core) run() {
	defer close(c.done)
	c.logger.Info("scheduler core running")
	for {
		select {
		case f := <-c.ops:
			f()
		case <-c.stop:
			c.logger.Info("scheduler core stopping")
			return
		}
	}
}

// do submits f to the single-writer loop and blocks until it has run.
func (c *Core) do(f func()) {
	done := make(chan struct{})
	c.ops <- func() {
		f()
		close(done)
	}
	<-done
}

// nextId is the scheduler-lock-protected monotonic task id counter (§5,
// §9 DESIGN NOTES). It is only ever invoked from within the loop
// goroutine, so no atomic is required.
func (c *Core) nextId() int64 {
	c.idCounter++
	return c.idCounter
}

func (c *Core) enqueueDriverKill(taskId int64) {
	if c.driver == nil || c.workQueue == nil {
		c.logger.Warn("dropping driver kill: no driver/work queue bound", "task_id", taskId)
		return
	}
	driver := c.driver
	c.workQueue.DoWork(func() bool {
		result := driver.KillTask(taskId)
		c.logger.Debug("driver kill dispatched", "task_id", taskId, "result", result)
		return true
	})
}

// killActiveTasksOfJob transitions every active task of key to
// KILLED_BY_CLIENT and enqueues the matching driver kills. It is the
// callback CronJobManager invokes for the KILL_EXISTING collision policy,
// supplied downward at construction rather than referenced back (§9
// DESIGN NOTES).
func (c *Core) killActiveTasksOfJob(key types.JobKey) {
	active := c.store.Fetch(types.ActiveQuery(key))
	for _, t := range active {
		c.driveTransition(t, types.KILLED_BY_CLIENT)
	}
}

// driveTransition applies the state machine to task and installs the
// result into the store, following through on any reschedule or driver
// kill the transition calls for.
func (c *Core) driveTransition(task *types.ScheduledTask, to types.Status) statemachine.Result {
	result := statemachine.Apply(task, to, c.nextId)
	if !result.Allowed {
		return result
	}
	c.store.Mutate(types.ByIds(task.Id), func(*types.ScheduledTask) *types.ScheduledTask {
		return result.Task
	})
	if result.Reschedule != nil {
		if err := c.store.Add([]*types.ScheduledTask{result.Reschedule}); err != nil {
			c.logger.Error("failed to insert rescheduled task", "error", err)
		}
	}
	if result.EnqueueKill {
		c.enqueueDriverKill(task.Id)
	}
	return result
}

// CreateJob validates job, rejects a job key already active in any
// manager, and routes it through the JobManager chain (§4.4).
func (c *Core) CreateJob(job types.JobConfiguration) error {
	var err error
	c.do(func() {
		populated, verr := configmanager.ValidateAndPopulate(job)
		if verr != nil {
			err = verr
			return
		}
		if rerr := c.chain.ReceiveJob(populated); rerr != nil {
			err = rerr
			return
		}
		c.configs[populated.Key()] = populated
	})
	return err
}

// Jobs returns every currently registered cron job definition, for the
// external cron trigger clock to poll (§6, §9 DESIGN NOTES: the core
// never runs its own cron scheduling, it only reacts to CronTriggered).
func (c *Core) Jobs() []types.JobConfiguration {
	var jobs []types.JobConfiguration
	c.do(func() { jobs = c.cronManager.Jobs() })
	return jobs
}

// CronTriggered fires one cron job's collision policy, driven by the
// external cron trigger clock (§4.3).
func (c *Core) CronTriggered(key types.JobKey) {
	c.do(func() { c.cronManager.CronTriggered(key) })
}

// UpdateJob delegates to the UpdatePlanner (§4.7). It fails with a
// *types.ScheduleError if the core holds no configuration for newJob's
// key. Configurations are held for jobs created through CreateJob on this
// Core and for cron jobs seeded by Restore; KillTasks drops a cron job's
// configuration when it deletes the cron definition.
func (c *Core) UpdateJob(newJob types.JobConfiguration) (updateplanner.JobUpdateResult, error) {
	var result updateplanner.JobUpdateResult
	var err error
	c.do(func() {
		populated, verr := configmanager.ValidateAndPopulate(newJob)
		if verr != nil {
			err = verr
			return
		}
		old, ok := c.configs[populated.Key()]
		if !ok {
			err = &types.ScheduleError{Job: populated.Key(), Message: "no job with that key exists"}
			return
		}
		deps := updateplanner.Deps{
			Store:        c.store,
			NextId:       c.nextId,
			CronReplacer: c.cronManager,
			Launcher:     c.updateLauncher,
			EnqueueKill:  c.enqueueDriverKill,
		}
		result, err = updateplanner.Plan(old, populated, deps)
		if err == nil {
			c.configs[populated.Key()] = populated
		}
	})
	return result, err
}

// Offer builds a per-offer predicate from the SchedulingFilter, selects at
// most one PENDING task satisfying it (ties broken by ascending task id,
// which Fetch already returns in), and transitions it to STARTING (§4.5).
// It returns nil, false if no PENDING task matches.
func (c *Core) Offer(slaveId, slaveHost string, resources types.VolatileResources) (*Assignment, bool) {
	if c.filter == nil {
		return nil, false
	}
	var assignment *Assignment
	c.do(func() {
		predicate := c.filter.MakeFilter(resources, slaveHost)
		for _, t := range c.store.Fetch(types.ByStatus(types.PENDING)) {
			if !predicate(t) {
				continue
			}
			result := statemachine.StartOnSlave(t, slaveId, slaveHost)
			if !result.Allowed {
				continue
			}
			started := result.Task.WithHeartbeat(time.Now().UnixNano())
			c.store.Mutate(types.ByIds(t.Id), func(*types.ScheduledTask) *types.ScheduledTask {
				return started
			})
			assignment = &Assignment{
				TaskId:    started.Id,
				SlaveId:   slaveId,
				SlaveHost: slaveHost,
				Info:      started.Info,
			}
			return
		}
	})
	if assignment == nil {
		return nil, false
	}
	return assignment, true
}

// SetTaskStatus applies the state machine to every task matching query
// (§4.4).
func (c *Core) SetTaskStatus(query types.Query, status types.Status) {
	c.do(func() {
		for _, t := range c.store.Fetch(query) {
			c.driveTransition(t, status)
		}
	})
}

// KillTasks removes matching PENDING tasks outright, transitions matching
// active non-PENDING tasks to KILLED_BY_CLIENT with a driver kill enqueued,
// and deletes any cron definition left with no matching tasks at all
// (§4.4).
func (c *Core) KillTasks(query types.Query) {
	c.do(func() {
		c.store.Remove(query.Where(func(t *types.ScheduledTask) bool {
			return t.Status == types.PENDING
		}))

		active := c.store.Fetch(query.Where(func(t *types.ScheduledTask) bool {
			return t.Status.Active() && t.Status != types.PENDING
		}))
		for _, t := range active {
			c.driveTransition(t, types.KILLED_BY_CLIENT)
		}

		if query.JobKey == nil {
			return
		}
		key := *query.JobKey
		if len(c.store.Fetch(types.ByJob(key))) == 0 {
			if c.chain.DeleteJob(key) {
				delete(c.configs, key)
			}
		}
	})
}

// RestartTasks transitions every active task among taskIds to
// KILLED_BY_CLIENT and creates its PENDING replacement, returning the
// subset that was active and thus accepted (§4.4, §8 invariant 5).
func (c *Core) RestartTasks(taskIds []int64) []int64 {
	var accepted []int64
	c.do(func() {
		for _, id := range taskIds {
			task, ok := c.store.GetById(id)
			if !ok || !task.Status.Active() {
				continue
			}
			result := c.driveTransition(task, types.KILLED_BY_CLIENT)
			if !result.Allowed {
				continue
			}
			replacement := result.Task.Reschedule(c.nextId(), task.FailureCount)
			if err := c.store.Add([]*types.ScheduledTask{replacement}); err != nil {
				c.logger.Error("failed to insert restart replacement", "error", err)
				continue
			}
			accepted = append(accepted, id)
		}
	})
	return accepted
}

// UpdateRegisteredTasks reconciles a slave's self-report against the
// store (§4.6).
func (c *Core) UpdateRegisteredTasks(update reconciler.RegisteredTaskUpdate) {
	c.do(func() {
		c.reconciler.Reconcile(update)
	})
}

// GetTasks is a passthrough to the store. It intentionally bypasses the
// single-writer loop: TaskStore serializes its own reads against
// concurrent mutation, so a pure query never needs to enter the loop
// (§9.5 in the accompanying design notes).
func (c *Core) GetTasks(query types.Query) []*types.ScheduledTask {
	return c.store.Fetch(query)
}

// FrameworkId returns the currently bound framework id, empty until
// Registered is called or a snapshot carrying one has been restored.
func (c *Core) FrameworkId() string {
	var id string
	c.do(func() { id = c.frameworkId })
	return id
}

// Registered binds the driver used for kill dispatches and records the
// framework id (§4.4).
func (c *Core) Registered(driver Driver, frameworkId string) {
	c.do(func() {
		c.driver = driver
		c.frameworkId = frameworkId
	})
}

// snapshotData is the persisted representation of the scheduler's state
// (§6: "the snapshot contains task counter, all ScheduledTasks, all cron
// JobConfigurations, framework id").
type snapshotData struct {
	TaskCounter int64                    `json:"task_counter"`
	FrameworkId string                   `json:"framework_id"`
	Tasks       []*types.ScheduledTask   `json:"tasks"`
	CronJobs    []types.JobConfiguration `json:"cron_jobs"`
}

// Snapshot serializes the current state and saves it through
// Persistence. It returns an error if no Persistence was configured.
func (c *Core) Snapshot() error {
	if c.persistence == nil {
		return fmt.Errorf("core: no persistence configured")
	}
	var data []byte
	var err error
	c.do(func() {
		snap := snapshotData{
			TaskCounter: c.idCounter,
			FrameworkId: c.frameworkId,
			Tasks:       c.store.Fetch(types.AllTasks()),
			CronJobs:    c.cronManager.Jobs(),
		}
		data, err = json.Marshal(snap)
	})
	if err != nil {
		return fmt.Errorf("core: marshal snapshot: %w", err)
	}
	return c.persistence.Save(data)
}

// Restore loads state from Persistence, seeding the task id counter,
// TaskStore contents, and cron definitions before the core serves any
// request.
func (c *Core) Restore() error {
	if c.persistence == nil {
		return fmt.Errorf("core: no persistence configured")
	}
	data, err := c.persistence.Load()
	if err != nil {
		return fmt.Errorf("core: load snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	var snap snapshotData
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("core: unmarshal snapshot: %w", err)
	}

	c.do(func() {
		c.idCounter = snap.TaskCounter
		c.frameworkId = snap.FrameworkId
		if len(snap.Tasks) > 0 {
			_ = c.store.Add(snap.Tasks)
		}
		for _, cfg := range snap.CronJobs {
			c.cronManager.Replace(cfg)
			c.configs[cfg.Key()] = cfg
		}
	})
	return nil
}
