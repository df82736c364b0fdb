// Package configmanager validates and field-populates JobConfigurations
// submitted to the scheduler (§3, §7). It never touches the TaskStore: its
// output is a ready-to-materialize JobConfiguration or a
// TaskDescriptionError, nothing else.
package configmanager

import (
	"fmt"

	"github.com/gammadia/jobcore/internal/scheduler/types"
)

// DefaultMaxTaskFailures is the value applied when a TaskInfo omits it.
const DefaultMaxTaskFailures = 1

// Populate returns a copy of job with defaults filled in: every TaskInfo's
// MaxTaskFailures is set to DefaultMaxTaskFailures when zero. It does not
// validate; call Validate first.
func Populate(job types.JobConfiguration) types.JobConfiguration {
	populated := job.Copy()
	for i := range populated.Tasks {
		if populated.Tasks[i].MaxTaskFailures == 0 {
			populated.Tasks[i].MaxTaskFailures = DefaultMaxTaskFailures
		}
	}
	return populated
}

// Validate checks the structural invariants of §3: a non-empty task set,
// and shard ids that are unique and form the contiguous range [0, N). It
// returns a *types.TaskDescriptionError describing the first violation
// found, or nil.
func Validate(job types.JobConfiguration) error {
	if len(job.Tasks) == 0 {
		return &types.TaskDescriptionError{Job: job.Key(), Message: "job has no tasks"}
	}

	seen := make(map[int32]bool, len(job.Tasks))
	maxShard := int32(-1)
	for _, task := range job.Tasks {
		if seen[task.ShardId] {
			return &types.TaskDescriptionError{
				Job:     job.Key(),
				Message: fmt.Sprintf("duplicate shard id %d", task.ShardId),
			}
		}
		seen[task.ShardId] = true
		if task.ShardId > maxShard {
			maxShard = task.ShardId
		}
		if err := validateTask(job.Key(), task); err != nil {
			return err
		}
	}

	n := int32(len(job.Tasks))
	if maxShard != n-1 {
		return &types.TaskDescriptionError{
			Job:     job.Key(),
			Message: fmt.Sprintf("shard ids must form the contiguous range [0, %d), got max shard id %d", n, maxShard),
		}
	}
	for shard := int32(0); shard < n; shard++ {
		if !seen[shard] {
			return &types.TaskDescriptionError{
				Job:     job.Key(),
				Message: fmt.Sprintf("missing shard id %d", shard),
			}
		}
	}

	return nil
}

func validateTask(jobKey types.JobKey, task types.TaskInfo) error {
	if task.ShardId < 0 {
		return &types.TaskDescriptionError{Job: jobKey, Message: "shard id must be non-negative"}
	}
	if task.StartCommand == "" {
		return &types.TaskDescriptionError{Job: jobKey, Message: "start command must not be empty"}
	}
	if task.CPU <= 0 {
		return &types.TaskDescriptionError{Job: jobKey, Message: "cpu must be positive"}
	}
	if task.MemoryMB <= 0 {
		return &types.TaskDescriptionError{Job: jobKey, Message: "memory must be positive"}
	}
	if task.DiskMB < 0 {
		return &types.TaskDescriptionError{Job: jobKey, Message: "disk must not be negative"}
	}
	if task.MaxTaskFailures < 0 {
		return &types.TaskDescriptionError{Job: jobKey, Message: "max_task_failures must not be negative"}
	}
	return nil
}

// ValidateAndPopulate is the entry point ConfigurationManager's callers
// use: it validates the structural invariants, then returns the
// field-populated configuration ready for a JobManager to materialize.
func ValidateAndPopulate(job types.JobConfiguration) (types.JobConfiguration, error) {
	if err := Validate(job); err != nil {
		return types.JobConfiguration{}, err
	}
	return Populate(job), nil
}
