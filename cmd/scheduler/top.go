package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"github.com/gammadia/jobcore/internal/scheduler/types"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Live dashboard of scheduled tasks",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		app := tview.NewApplication()

		header := tview.NewTextView().
			SetDynamicColors(true).
			SetTextAlign(tview.AlignLeft)
		header.SetBorder(true).SetTitle(" scheduler ")

		tasksTable := tview.NewTable().
			SetFixed(1, 0).
			SetSelectable(true, false)
		tasksTable.SetBorder(true).SetTitle(" Tasks ")

		layout := tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(header, 3, 0, false).
			AddItem(tasksTable, 0, 1, true)

		app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
			if event.Rune() == 'q' {
				app.Stop()
				return nil
			}
			return event
		})

		startedAt := time.Now()

		updateHeader := func() {
			header.Clear()
			fmt.Fprintf(header, " [yellow]scheduler[white] %s/%s  |  Framework: [green]%s[white]  |  Uptime: [green]%s[white]",
				version, commit, a.Core.FrameworkId(), time.Since(startedAt).Truncate(time.Second))
		}

		updateTasks := func() {
			tasksTable.Clear()
			for col, title := range []string{"ID", "JOB", "SHARD", "STATUS", "SLAVE"} {
				tasksTable.SetCell(0, col, tview.NewTableCell(title).
					SetTextColor(tcell.ColorYellow).
					SetSelectable(false).
					SetExpansion(1))
			}

			tasks := a.Core.GetTasks(types.AllTasks())
			sort.Slice(tasks, func(i, j int) bool { return tasks[i].Id < tasks[j].Id })

			for row, t := range tasks {
				slave := "-"
				if t.SlaveHost != nil {
					slave = *t.SlaveHost
				}
				tasksTable.SetCell(row+1, 0, tview.NewTableCell(fmt.Sprintf("%d", t.Id)).SetExpansion(1))
				tasksTable.SetCell(row+1, 1, tview.NewTableCell(t.JobKey.String()).SetExpansion(2))
				tasksTable.SetCell(row+1, 2, tview.NewTableCell(fmt.Sprintf("%d", t.ShardId())).SetExpansion(1))
				tasksTable.SetCell(row+1, 3, tview.NewTableCell(t.Status.String()).
					SetTextColor(statusColor(t.Status)).SetExpansion(1))
				tasksTable.SetCell(row+1, 4, tview.NewTableCell(slave).SetExpansion(2))
			}
		}

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(1 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					app.QueueUpdateDraw(func() {
						updateHeader()
						updateTasks()
					})
				}
			}
		}()

		updateHeader()
		updateTasks()

		err = app.SetRoot(layout, true).Run()
		close(done)
		return err
	},
}

func statusColor(status types.Status) tcell.Color {
	switch status {
	case types.RUNNING, types.STARTING:
		return tcell.ColorGreen
	case types.PENDING:
		return tcell.ColorYellow
	case types.FAILED, types.LOST:
		return tcell.ColorRed
	case types.KILLED, types.KILLED_BY_CLIENT:
		return tcell.ColorGray
	default:
		return tcell.ColorWhite
	}
}
