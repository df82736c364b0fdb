// Package schedfilter is the concrete SchedulingFilter (§4.5, §6): a
// resource-fit predicate over the offered slave's CPU, memory and disk.
package schedfilter

import "github.com/gammadia/jobcore/internal/scheduler/types"

// ResourceFilter accepts a PENDING task iff its TaskInfo's resource
// requirements fit within the offered resources. slaveHost is accepted
// per the SchedulingFilter contract but unused: this filter carries no
// host-affinity policy.
type ResourceFilter struct{}

func New() ResourceFilter {
	return ResourceFilter{}
}

func (ResourceFilter) MakeFilter(resources types.VolatileResources, slaveHost string) func(*types.ScheduledTask) bool {
	return func(t *types.ScheduledTask) bool {
		return t.Info.CPU <= resources.CPU &&
			t.Info.MemoryMB <= resources.MemoryMB &&
			t.Info.DiskMB <= resources.DiskMB
	}
}
