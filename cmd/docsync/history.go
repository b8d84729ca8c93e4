package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"docsync/internal/document"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded check runs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig(cmd)
		store := initStore(cfg)
		defer store.Close()

		p := newPrinter(os.Stdout)

		if runID, _ := cmd.Flags().GetInt64("run"); runID > 0 {
			reports, err := store.LoadFindings(ctx, runID)
			if err != nil {
				log.Fatalf("Failed to load run #%d: %v", runID, err)
			}
			if len(reports) == 0 {
				fmt.Fprintf(p.out, "Run #%d has no recorded files\n", runID)
				return
			}
			for _, report := range reports {
				path := p.rel(document.URI(report.URI).Path())
				for _, f := range report.Findings {
					pos := document.Position{Line: f.Line, Column: f.Column}
					fmt.Fprintf(p.out, "%s:%s: %s\n", p.path.Sprint(path), p.pos.Sprint(pos), p.msg.Sprint(f.Message))
				}
			}
			return
		}

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.ListRuns(ctx, limit)
		if err != nil {
			log.Fatalf("Failed to list runs: %v", err)
		}
		if len(runs) == 0 {
			fmt.Fprintln(p.out, "No recorded runs.")
			return
		}
		for _, run := range runs {
			findings := p.ok.Sprint(run.Findings)
			if run.Findings > 0 {
				findings = p.msg.Sprint(run.Findings)
			}
			fmt.Fprintf(p.out, "#%-5d %s  %4d files  %s findings  %s\n",
				run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Files, findings, p.rel(run.Root))
		}
	},
}

func init() {
	historyCmd.Flags().Int("limit", 10, "Number of runs to list, 0 for all")
	historyCmd.Flags().Int64("run", 0, "Show the findings of this run")
}
