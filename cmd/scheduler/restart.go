package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gammadia/jobcore/internal/ui"
)

var restartCmd = &cobra.Command{
	Use:   "restart TASK_ID...",
	Short: "Kill and reschedule one or more active tasks",
	Args:  cobra.MinimumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, len(args))
		for i, arg := range args {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return err
			}
			ids[i] = id
		}

		spin := ui.NewSpinner(fmt.Sprintf("restarting %d task(s)", len(ids)))

		a, err := buildApp()
		if err != nil {
			spin.Fail(err.Error())
			return err
		}
		defer a.Close()

		accepted := a.Core.RestartTasks(ids)
		spin.Success(fmt.Sprintf("restarted %d/%d requested tasks", len(accepted), len(ids)))
		return nil
	},
}
