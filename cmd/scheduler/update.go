package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gammadia/jobcore/internal/jobspec"
	"github.com/gammadia/jobcore/internal/ui"
)

var updateArgs []string
var updateParams map[string]string

var updateCmd = &cobra.Command{
	Use:   "update FILE",
	Short: "Apply a jobspec change to an already-created job",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := jobspec.Read(args[0], jobspec.ReadOptions{Args: updateArgs, Params: updateParams})
		if err != nil {
			return fmt.Errorf("read jobspec: %w", err)
		}

		spin := ui.NewSpinner(fmt.Sprintf("updating job '%s'", job.Key()))

		a, err := buildApp()
		if err != nil {
			spin.Fail(err.Error())
			return err
		}
		defer a.Close()

		result, err := a.Core.UpdateJob(job)
		if err != nil {
			spin.Fail(err.Error())
			return err
		}

		spin.Success(fmt.Sprintf("update of '%s': %s", job.Key(), result))
		return nil
	},
}

func init() {
	updateCmd.Flags().StringSliceVar(&updateArgs, "arg", nil, "positional jobspec template argument, may be repeated")
	updateCmd.Flags().StringToStringVar(&updateParams, "param", nil, "named jobspec template parameter, key=value")
}
