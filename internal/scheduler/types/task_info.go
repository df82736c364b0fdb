package types

// TaskInfo is the immutable description of one shard of a job: what to run
// and how much of the slave's resources it needs. A TaskInfo is embedded,
// copy-on-write, into every ScheduledTask attempt for that shard.
type TaskInfo struct {
	StartCommand string
	CPU          float64
	MemoryMB     float64
	DiskMB       float64
	Ports        []int32

	// Daemon tasks are rescheduled automatically when they FINISH.
	Daemon bool
	// MaxTaskFailures is the number of RUNNING->FAILED transitions this
	// shard tolerates before it is left in FAILED with no reschedule.
	// Zero means "not yet populated"; ConfigurationManager fills in the
	// default of 1 during Populate.
	MaxTaskFailures int32
	// Priority is an opaque ordering hint; the resource-offer matcher
	// does not currently use it (FIFO among PENDING tasks), but it is
	// part of the wire-visible TaskInfo and participates in update
	// diffing (§4.7: priority is a "non-runtime field").
	Priority int32

	// ShardId is unique within the owning job and, together with the
	// job key, identifies which slot of the job this task fills.
	ShardId int32
}

// Copy returns a value copy of ti. TaskInfo has no reference fields other
// than Ports, which is copied defensively.
func (ti TaskInfo) Copy() TaskInfo {
	cp := ti
	if ti.Ports != nil {
		cp.Ports = append([]int32(nil), ti.Ports...)
	}
	return cp
}

// EqualIgnoringRuntimeFields reports whether ti and other differ only in
// Priority and MaxTaskFailures - the fields the update planner is allowed
// to apply in place without replacing the task (§4.7).
func (ti TaskInfo) EqualIgnoringRuntimeFields(other TaskInfo) bool {
	cp, ocp := ti, other
	cp.Priority, ocp.Priority = 0, 0
	cp.MaxTaskFailures, ocp.MaxTaskFailures = 0, 0
	return cp.equalCore(ocp)
}

func (ti TaskInfo) equalCore(other TaskInfo) bool {
	if ti.StartCommand != other.StartCommand ||
		ti.CPU != other.CPU ||
		ti.MemoryMB != other.MemoryMB ||
		ti.DiskMB != other.DiskMB ||
		ti.Daemon != other.Daemon ||
		ti.ShardId != other.ShardId {
		return false
	}
	if len(ti.Ports) != len(other.Ports) {
		return false
	}
	for i, p := range ti.Ports {
		if other.Ports[i] != p {
			return false
		}
	}
	return true
}

// Equal reports whether ti is byte-equal to other in every field, used by
// the update planner to detect a no-op update (§4.7 JOB_UNCHANGED).
func (ti TaskInfo) Equal(other TaskInfo) bool {
	return ti.equalCore(other) && ti.Priority == other.Priority && ti.MaxTaskFailures == other.MaxTaskFailures
}
