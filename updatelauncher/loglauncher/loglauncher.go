// Package loglauncher is an UpdateLauncher that logs the rolling update it
// was asked to start. A real implementation would drive the executors
// through a sequenced restart; that mechanics is out of core scope (§6).
package loglauncher

import (
	"log/slog"

	"github.com/gammadia/jobcore/internal/scheduler/types"
)

type Launcher struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{logger: logger.With("component", "update-launcher")}
}

func (l *Launcher) LaunchUpdater(job types.JobConfiguration) {
	l.logger.Info("launching rolling updater", "job", job.Key().String(), "shards", len(job.Tasks))
}
