package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"dealflow/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent reminder scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No scans recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.RanAt.Local().Format(time.DateTime),
					run.RunID,
					yesNo(run.Success),
					yesNo(run.EmailSent),
					strconv.Itoa(run.DealsFound + run.TasksFound + run.TodosFound),
					strconv.Itoa(run.OverdueDealsFound + run.OverdueTasksFound + run.OverdueTodosFound),
					run.Message,
				})
			}
			writeTable(out, []string{"Ran at", "Run", "OK", "Emailed", "Due", "Overdue", "Message"}, rows, 4, 5)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Number of scans to show")
	return cmd
}
