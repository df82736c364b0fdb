// Package jobspec is the YAML jobfile format the scheduler CLI reads from
// disk and turns into a types.JobConfiguration for CreateJob/UpdateJob
// (§3, §4). Shard command lines are plain strings in the YAML; template
// arguments are inserted as-is unless the jobfile passes them through the
// `quote` template function, which shell-quotes them.
package jobspec

import (
	"fmt"
	"regexp"

	"github.com/gammadia/jobcore/internal/scheduler/types"
)

const SpecVersion = "1"

type Spec struct {
	Version         string      `yaml:"version"`
	Owner           string      `yaml:"owner"`
	Name            string      `yaml:"name"`
	CronSchedule    string      `yaml:"cron,omitempty"`
	CollisionPolicy string      `yaml:"collision_policy,omitempty"`
	Shards          []SpecShard `yaml:"shards"`
}

type SpecShard struct {
	Shard           int32   `yaml:"shard"`
	StartCommand    string  `yaml:"start_command"`
	CPU             float64 `yaml:"cpu"`
	MemoryMB        float64 `yaml:"memory_mb"`
	DiskMB          float64 `yaml:"disk_mb"`
	Ports           []int32 `yaml:"ports,omitempty"`
	Daemon          bool    `yaml:"daemon,omitempty"`
	MaxTaskFailures int32   `yaml:"max_task_failures,omitempty"`
	Priority        int32   `yaml:"priority,omitempty"`
}

var nameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]+$`)
var policyByName = map[string]types.CronCollisionPolicy{
	"kill_existing": types.KillExisting,
	"cancel_new":    types.CancelNew,
	"run_overlap":   types.RunOverlap,
}

func (s Spec) Validate() error {
	if s.Version != SpecVersion {
		return fmt.Errorf("unsupported version '%s'", s.Version)
	}
	if !nameRegex.MatchString(s.Owner) {
		return fmt.Errorf("owner must be a valid identifier")
	}
	if !nameRegex.MatchString(s.Name) {
		return fmt.Errorf("name must be a valid identifier")
	}
	if len(s.Shards) == 0 {
		return fmt.Errorf("at least one shard is required")
	}
	if s.CollisionPolicy != "" {
		if _, ok := policyByName[s.CollisionPolicy]; !ok {
			return fmt.Errorf("unknown collision_policy '%s'", s.CollisionPolicy)
		}
	}
	for _, shard := range s.Shards {
		if shard.StartCommand == "" {
			return fmt.Errorf("shards[%d].start_command is required", shard.Shard)
		}
		if shard.CPU <= 0 {
			return fmt.Errorf("shards[%d].cpu must be positive", shard.Shard)
		}
		if shard.MemoryMB <= 0 {
			return fmt.Errorf("shards[%d].memory_mb must be positive", shard.Shard)
		}
	}
	return nil
}

// JobConfiguration converts the validated spec into the domain type
// CreateJob/UpdateJob expect. Unpopulated runtime defaults (MaxTaskFailures)
// are left for configmanager.Populate to fill in.
func (s Spec) JobConfiguration() types.JobConfiguration {
	job := types.JobConfiguration{
		Owner:        s.Owner,
		Name:         s.Name,
		CronSchedule: s.CronSchedule,
		Tasks:        make([]types.TaskInfo, len(s.Shards)),
	}
	if policy, ok := policyByName[s.CollisionPolicy]; ok {
		job.CollisionPolicy = policy
	}
	for i, shard := range s.Shards {
		job.Tasks[i] = types.TaskInfo{
			StartCommand:    shard.StartCommand,
			CPU:             shard.CPU,
			MemoryMB:        shard.MemoryMB,
			DiskMB:          shard.DiskMB,
			Ports:           append([]int32(nil), shard.Ports...),
			Daemon:          shard.Daemon,
			MaxTaskFailures: shard.MaxTaskFailures,
			Priority:        shard.Priority,
			ShardId:         shard.Shard,
		}
	}
	return job
}
