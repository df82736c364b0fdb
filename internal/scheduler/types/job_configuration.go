package types

import "fmt"

// CronCollisionPolicy governs what CronJobManager does when a cron
// expression fires while the job's prior firing still has active tasks.
type CronCollisionPolicy int

const (
	// KillExisting kills the currently active tasks, then materializes
	// a fresh set.
	KillExisting CronCollisionPolicy = iota
	// CancelNew skips this firing entirely.
	CancelNew
	// RunOverlap materializes a fresh set alongside the existing one.
	RunOverlap
)

func (p CronCollisionPolicy) String() string {
	switch p {
	case KillExisting:
		return "KILL_EXISTING"
	case CancelNew:
		return "CANCEL_NEW"
	case RunOverlap:
		return "RUN_OVERLAP"
	default:
		return "UNKNOWN"
	}
}

// JobKey identifies a job uniquely across the cluster: the pair is unique
// among currently active jobs (§3).
type JobKey struct {
	Owner string
	Name  string
}

func (k JobKey) String() string {
	return fmt.Sprintf("%s/%s", k.Owner, k.Name)
}

// JobConfiguration is the durable description of a job: what its shards
// look like and, for cron jobs, when and how they fire.
type JobConfiguration struct {
	Owner string
	Name  string
	Tasks []TaskInfo

	// CronSchedule is empty for an immediate job.
	CronSchedule    string
	CollisionPolicy CronCollisionPolicy
}

func (j JobConfiguration) Key() JobKey {
	return JobKey{Owner: j.Owner, Name: j.Name}
}

func (j JobConfiguration) IsCron() bool {
	return j.CronSchedule != ""
}

// Copy returns a deep copy of j sufficient for storing an independent
// snapshot (used by CronJobManager, which owns its JobConfigurations, and
// by the update planner when comparing old against new).
func (j JobConfiguration) Copy() JobConfiguration {
	cp := j
	cp.Tasks = make([]TaskInfo, len(j.Tasks))
	for i, t := range j.Tasks {
		cp.Tasks[i] = t.Copy()
	}
	return cp
}

// Equal reports whether j and other are byte-equal after field population,
// used by the update planner to detect JOB_UNCHANGED (§4.7).
func (j JobConfiguration) Equal(other JobConfiguration) bool {
	if j.Owner != other.Owner || j.Name != other.Name ||
		j.CronSchedule != other.CronSchedule || j.CollisionPolicy != other.CollisionPolicy {
		return false
	}
	if len(j.Tasks) != len(other.Tasks) {
		return false
	}
	byShard := make(map[int32]TaskInfo, len(other.Tasks))
	for _, t := range other.Tasks {
		byShard[t.ShardId] = t
	}
	for _, t := range j.Tasks {
		ot, ok := byShard[t.ShardId]
		if !ok || !t.Equal(ot) {
			return false
		}
	}
	return true
}
