// Package flags declares jobcore's command-line flags and binds them
// into viper, so every package reads configuration through
// viper.Get*(flags.X) rather than threading *pflag.FlagSet by hand.
//
// Unlike the teacher's server/flags, which owns the process's entire
// argument list (its binary has no subcommands), this binary is a
// cobra command tree: Register attaches these flags to the root
// command's persistent flag set instead of parsing os.Args itself, so
// cobra still owns subcommand dispatch and per-command arguments.
package flags

import (
	"strings"
	"time"

	"github.com/samber/lo"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	LogFormat = "log-format"
	LogLevel  = "log-level"
	LogSource = "log-source"

	SnapshotPath     = "snapshot-path"
	SnapshotInterval = "snapshot-interval"
	CronPollInterval = "cron-poll-interval"
	GracePeriod      = "grace-period"
	WorkQueueBuffer  = "workqueue-buffer"
)

// Register declares every flag on fs and binds it into viper. Call once,
// on the root command's persistent flag set, before Execute.
func Register(fs *flag.FlagSet) {
	fs.String(LogFormat, "json", "log format (json, text)")
	fs.String(LogLevel, "INFO", "minimum log level")
	fs.Bool(LogSource, false, "add source code location to logs")

	fs.String(SnapshotPath, "jobcore.snapshot", "path to the zstd-compressed scheduler snapshot")
	fs.Duration(SnapshotInterval, 30*time.Second, "how often to persist a scheduler snapshot")
	fs.Duration(CronPollInterval, 10*time.Second, "how often the cron trigger clock fires registered jobs")
	fs.Duration(GracePeriod, 2*time.Minute, "how long a task may go unreported by its slave before it is marked LOST")
	fs.Int(WorkQueueBuffer, 256, "buffered capacity of the driver work queue")

	viper.SetEnvPrefix("jobcore")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	lo.Must0(viper.BindPFlags(fs))
}
