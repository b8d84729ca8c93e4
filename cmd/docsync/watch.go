package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"docsync/internal/pipeline"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-check PHP files as they change",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, runner := initRunner(cmd)
		path := runner.Root()
		if len(args) > 0 {
			path = args[0]
		}
		debounce, _ := cmd.Flags().GetDuration("debounce")

		p := newPrinter(os.Stdout)
		fmt.Fprintf(p.out, "Watching %s\n", p.rel(path))
		err := runner.Watch(cmd.Context(), path, debounce, func(results []pipeline.FileResult) {
			findings := p.results(results)
			p.summary(len(results), findings)
		})
		if err != nil {
			log.Fatalf("Watch failed: %v", err)
		}
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", pipeline.DefaultDebounce, "Quiet period before changed files are re-checked")
}
