package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/gammadia/jobcore/driver/logdriver"
	"github.com/gammadia/jobcore/internal/displayid"
	"github.com/gammadia/jobcore/internal/flags"
	"github.com/gammadia/jobcore/internal/log"
	"github.com/gammadia/jobcore/internal/scheduler/core"
	"github.com/gammadia/jobcore/internal/workqueue"
	"github.com/gammadia/jobcore/persistence/fspersist"
	"github.com/gammadia/jobcore/schedfilter"
	"github.com/gammadia/jobcore/updatelauncher/loglauncher"
)

// app bundles the running Core with the domain adapters that own their
// own goroutines, so a subcommand can shut everything down cleanly
// before exiting.
type app struct {
	Core  *core.Core
	queue *workqueue.Queue
}

// buildApp wires the reference adapters from the domain stack into a
// running Core and restores its last snapshot, if any. Callers must
// call Close when done.
func buildApp() (*app, error) {
	persistence := fspersist.New(viper.GetString(flags.SnapshotPath))
	queue := workqueue.New(viper.GetInt(flags.WorkQueueBuffer))

	c := core.New(core.Config{
		Filter:         schedfilter.New(),
		Driver:         logdriver.New(log.Base),
		Persistence:    persistence,
		WorkQueue:      queue,
		UpdateLauncher: loglauncher.New(log.Base),
		GracePeriod:    viper.GetDuration(flags.GracePeriod),
		Logger:         log.Base,
	})

	if err := c.Restore(); err != nil {
		queue.Stop()
		c.Shutdown()
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}

	frameworkId := c.FrameworkId()
	if frameworkId == "" {
		frameworkId = displayid.Get().String()
	}
	c.Registered(logdriver.New(log.Base), frameworkId)

	return &app{Core: c, queue: queue}, nil
}

// Close snapshots one last time, then tears down the core and its
// work queue in dependency order (the queue may still be draining
// driver kills issued by the core).
func (a *app) Close() {
	if err := a.Core.Snapshot(); err != nil {
		log.Warn("failed to persist final snapshot", "error", err)
	}
	a.Core.Shutdown()
	a.queue.Stop()
}
