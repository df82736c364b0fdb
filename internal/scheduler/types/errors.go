package types

import "fmt"

// TaskDescriptionError is raised by the ConfigurationManager when a
// submitted JobConfiguration is structurally invalid: empty task set,
// missing/duplicate/non-contiguous shard ids, or an unparsable numeric
// field. It is not recovered; callers propagate it (§7).
type TaskDescriptionError struct {
	Job     JobKey
	Message string
}

func (e *TaskDescriptionError) Error() string {
	return fmt.Sprintf("invalid job configuration for %s: %s", e.Job, e.Message)
}

// ScheduleError is a semantic rejection: duplicate job key, an update
// targeting a job that does not exist, or a cron policy violation (§7).
type ScheduleError struct {
	Job     JobKey
	Message string
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("cannot schedule %s: %s", e.Job, e.Message)
}
