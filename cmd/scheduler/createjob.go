package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gammadia/jobcore/internal/jobspec"
	"github.com/gammadia/jobcore/internal/ui"
)

var createJobArgs []string
var createJobParams map[string]string

var createJobCmd = &cobra.Command{
	Use:   "create-job FILE",
	Short: "Submit a job from a jobspec YAML file",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := jobspec.Read(args[0], jobspec.ReadOptions{Args: createJobArgs, Params: createJobParams})
		if err != nil {
			return fmt.Errorf("read jobspec: %w", err)
		}

		spin := ui.NewSpinner(fmt.Sprintf("creating job '%s'", job.Key()))

		a, err := buildApp()
		if err != nil {
			spin.Fail(err.Error())
			return err
		}
		defer a.Close()

		if err := a.Core.CreateJob(job); err != nil {
			spin.Fail(err.Error())
			return err
		}

		spin.Success(fmt.Sprintf("created job '%s'", job.Key()))
		return nil
	},
}

func init() {
	createJobCmd.Flags().StringSliceVar(&createJobArgs, "arg", nil, "positional jobspec template argument, may be repeated")
	createJobCmd.Flags().StringToStringVar(&createJobParams, "param", nil, "named jobspec template parameter, key=value")
}
