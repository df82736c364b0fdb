package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gammadia/jobcore/internal/scheduler/types"
	"github.com/gammadia/jobcore/internal/ui"
)

var killTaskIds []int64

var killCmd = &cobra.Command{
	Use:   "kill OWNER NAME",
	Short: "Kill a job's active tasks, or specific tasks with --task",
	Args:  cobra.ExactArgs(2),

	RunE: func(cmd *cobra.Command, args []string) error {
		spin := ui.NewSpinner(fmt.Sprintf("killing '%s/%s'", args[0], args[1]))

		a, err := buildApp()
		if err != nil {
			spin.Fail(err.Error())
			return err
		}
		defer a.Close()

		query := types.ByJob(types.JobKey{Owner: args[0], Name: args[1]})
		if len(killTaskIds) > 0 {
			query = query.And(types.ByIds(killTaskIds...))
		}

		a.Core.KillTasks(query)
		spin.Success(fmt.Sprintf("kill requested for '%s/%s'", args[0], args[1]))
		return nil
	},
}

func init() {
	killCmd.Flags().Int64SliceVar(&killTaskIds, "task", nil, "restrict the kill to these task ids, may be repeated")
}
