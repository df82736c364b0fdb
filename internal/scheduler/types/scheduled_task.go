package types

// VolatileResources is the resource-consumption snapshot most recently
// reported for a task. It is never persisted (§3): a restart of the
// scheduler loses it, and it is repopulated as reports arrive.
type VolatileResources struct {
	CPU      float64
	MemoryMB float64
	DiskMB   float64
}

// ScheduledTask is one attempt to run one shard of one job. Instances are
// owned by the TaskStore and must be treated as immutable by callers: every
// mutation goes through TaskStore.Mutate, which installs a replacement
// value built with the With* helpers below (copy-on-write, matching the
// pattern the pack uses for its own per-attempt records).
type ScheduledTask struct {
	Id int64

	JobKey JobKey
	Info   TaskInfo

	Status       Status
	FailureCount int32

	SlaveId   *string
	SlaveHost *string

	// AncestorId is set when this task replaces a prior terminal attempt
	// on the same shard.
	AncestorId *int64

	Resources VolatileResources

	// LastHeartbeatUnixNano is the time the task was launched by the
	// offer matcher or, later, of the last slave report that mentioned
	// it; the reconciliation engine's grace period is measured from it.
	LastHeartbeatUnixNano int64
}

func (t *ScheduledTask) ShardId() int32 {
	return t.Info.ShardId
}

// copy returns a copy of *t with its own Info and its own slave and
// ancestor pointers; the returned pointer is a distinct object so
// mutating it never affects the value stored in the TaskStore until the
// copy is written back.
func (t *ScheduledTask) copy() *ScheduledTask {
	cp := *t
	cp.Info = t.Info.Copy()
	if t.SlaveId != nil {
		id := *t.SlaveId
		cp.SlaveId = &id
	}
	if t.SlaveHost != nil {
		h := *t.SlaveHost
		cp.SlaveHost = &h
	}
	if t.AncestorId != nil {
		a := *t.AncestorId
		cp.AncestorId = &a
	}
	return &cp
}

// WithStatus returns a copy of t transitioned to status s, with no other
// field changed. Callers apply the state machine's side effects with the
// other With* helpers before installing the result.
func (t *ScheduledTask) WithStatus(s Status) *ScheduledTask {
	cp := t.copy()
	cp.Status = s
	return cp
}

func (t *ScheduledTask) WithSlave(slaveId, slaveHost string) *ScheduledTask {
	cp := t.copy()
	cp.SlaveId = &slaveId
	cp.SlaveHost = &slaveHost
	return cp
}

func (t *ScheduledTask) WithFailureCount(n int32) *ScheduledTask {
	cp := t.copy()
	cp.FailureCount = n
	return cp
}

func (t *ScheduledTask) WithResources(r VolatileResources) *ScheduledTask {
	cp := t.copy()
	cp.Resources = r
	return cp
}

func (t *ScheduledTask) WithHeartbeat(unixNano int64) *ScheduledTask {
	cp := t.copy()
	cp.LastHeartbeatUnixNano = unixNano
	return cp
}

func (t *ScheduledTask) WithInfo(info TaskInfo) *ScheduledTask {
	cp := t.copy()
	cp.Info = info.Copy()
	return cp
}

// Reschedule builds the replacement PENDING task for a terminal task t: it
// carries the same job key and shard, a fresh id, the (possibly
// incremented) failure count, and t.Id as its ancestor.
func (t *ScheduledTask) Reschedule(newId int64, failureCount int32) *ScheduledTask {
	ancestor := t.Id
	return &ScheduledTask{
		Id:           newId,
		JobKey:       t.JobKey,
		Info:         t.Info.Copy(),
		Status:       PENDING,
		FailureCount: failureCount,
		AncestorId:   &ancestor,
	}
}
