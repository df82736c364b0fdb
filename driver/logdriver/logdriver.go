// Package logdriver is a core.Driver that logs every kill dispatch
// instead of issuing it against real cluster infrastructure. It is the
// driver wired into the demo binary, which runs the scheduling loop
// without a real slave population.
package logdriver

import "log/slog"

// Driver logs every kill request and always reports success. Tracking
// real executor RPCs is out of core scope (§6).
type Driver struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{logger: logger.With("component", "driver")}
}

// KillTask logs the kill and returns 0, mirroring the Driver contract
// where the return value carries no correctness weight (§6).
func (d *Driver) KillTask(taskId int64) int {
	d.logger.Info("dispatching kill", "task_id", taskId)
	return 0
}
