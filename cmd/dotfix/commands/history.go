package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotfix-sh/dotfix/pkg/config"
	"github.com/dotfix-sh/dotfix/pkg/stores"
)

func newHistoryCommand() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past runs",
		Long: `List recent runs from the local history database, or show the
per-task records of one run by ID.`,
		Example: `  # List recent runs
  dotfix history

  # Show one run in detail
  dotfix history 6d1c2f0a-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(settingsPath)
			if err != nil {
				return err
			}

			store, err := stores.NewSQLiteStore(settings.StorePath)
			if err != nil {
				return err
			}
			if err := store.Init(cmd.Context()); err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return showRun(cmd, store, args[0], asJSON)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(runs)
			}

			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}
			for _, run := range runs {
				fmt.Printf("%s  %-8s  %s  %s\n",
					run.StartedAt.Format(time.RFC3339), run.Status, run.ID, run.Summary)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")

	return cmd
}

func showRun(cmd *cobra.Command, store *stores.SQLiteStore, id string, asJSON bool) error {
	run, records, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(struct {
			Run   *stores.Run         `json:"run"`
			Tasks []stores.TaskRecord `json:"tasks"`
		}{Run: run, Tasks: records})
	}

	fmt.Printf("run:      %s\n", run.ID)
	fmt.Printf("status:   %s\n", run.Status)
	fmt.Printf("started:  %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Printf("finished: %s\n", run.FinishedAt.Format(time.RFC3339))
	fmt.Printf("summary:  %s\n", run.Summary)

	if len(records) > 0 {
		fmt.Println("tasks:")
		for _, rec := range records {
			line := fmt.Sprintf("  %-12s %-8s %dms", rec.Task, rec.Outcome, rec.DurationMs)
			if rec.Message != "" {
				line += "  " + rec.Message
			}
			fmt.Println(line)
		}
	}
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
