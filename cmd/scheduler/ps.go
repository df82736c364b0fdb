package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gammadia/jobcore/internal/scheduler/types"
)

var psOwner string

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List scheduled tasks",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		query := types.AllTasks()
		if psOwner != "" {
			query = types.ByOwner(psOwner)
		}

		for _, t := range a.Core.GetTasks(query) {
			slave := "-"
			if t.SlaveHost != nil {
				slave = *t.SlaveHost
			}
			cmd.Printf("%-8d  %-24s  %-3d  %-18s  %s\n",
				t.Id, t.JobKey, t.ShardId(), color.HiCyanString(t.Status.String()), slave)
		}
		return nil
	},
}

func init() {
	psCmd.Flags().StringVar(&psOwner, "owner", "", "restrict listing to a single owner")
}
