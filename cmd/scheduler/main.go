package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/gammadia/jobcore/internal/flags"
	"github.com/gammadia/jobcore/internal/log"
)

// Versioning information set at build time.
var version, commit = "dev", "n/a"

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "scheduler is a single-writer cluster job scheduler.",

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return log.Init()
	},
}

func init() {
	flags.Register(schedulerCmd.PersistentFlags())

	schedulerCmd.AddCommand(serveCmd)
	schedulerCmd.AddCommand(createJobCmd)
	schedulerCmd.AddCommand(killCmd)
	schedulerCmd.AddCommand(restartCmd)
	schedulerCmd.AddCommand(updateCmd)
	schedulerCmd.AddCommand(psCmd)
	schedulerCmd.AddCommand(topCmd)
	schedulerCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedulerCmd.SetOut(os.Stdout)
	if err := schedulerCmd.ExecuteContext(ctx); err != nil {
		lo.Must(fmt.Fprintln(os.Stderr, color.HiRedString(fmt.Sprint(err))))
		os.Exit(1)
	}
}
