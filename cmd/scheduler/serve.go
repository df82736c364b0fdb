package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gammadia/jobcore/crontrigger"
	"github.com/gammadia/jobcore/internal/flags"
	"github.com/gammadia/jobcore/internal/log"
	"github.com/gammadia/jobcore/internal/scheduler/core"
	"github.com/gammadia/jobcore/internal/scheduler/types"
)

// cronManagerLister adapts *core.Core to crontrigger's JobLister and
// Trigger interfaces.
type cronManagerLister struct {
	core *core.Core
}

func (l cronManagerLister) Jobs() []types.JobConfiguration {
	return l.core.Jobs()
}

func (l cronManagerLister) CronTriggered(key types.JobKey) {
	l.core.CronTriggered(key)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler until interrupted",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		clock := crontrigger.New(viper.GetDuration(flags.CronPollInterval), cronManagerLister{a.Core}, cronManagerLister{a.Core})
		clock.Start()
		defer clock.Stop()

		snapshotTicker := time.NewTicker(viper.GetDuration(flags.SnapshotInterval))
		defer snapshotTicker.Stop()

		log.Info("scheduler serving", "framework_id", a.Core.FrameworkId())

		ctx := cmd.Context()
		for {
			select {
			case <-ctx.Done():
				log.Info("shutdown signal received")
				return nil
			case <-snapshotTicker.C:
				if err := a.Core.Snapshot(); err != nil {
					log.Warn("periodic snapshot failed", "error", err)
				}
			}
		}
	},
}
