package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var fixCmd = &cobra.Command{
	Use:   "fix [paths...]",
	Short: "Insert or update @return docblocks in place",
	Run: func(cmd *cobra.Command, args []string) {
		_, runner := initRunner(cmd)
		files := selectFiles(cmd, runner, args)
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		results, err := runner.Fix(cmd.Context(), files, dryRun)
		if err != nil {
			log.Fatalf("Fix failed: %v", err)
		}

		p := newPrinter(os.Stdout)
		fixed, failed := 0, 0
		for _, res := range results {
			switch {
			case res.Err != nil:
				p.failure(res.Path, res.Err)
				failed++
			case len(res.Edits) == 0:
			case dryRun:
				for _, d := range res.Diagnostics {
					p.diagnostic(d)
				}
				fixed++
			default:
				fmt.Fprintf(p.out, "%s %s (%d edits)\n", p.ok.Sprint("fixed"), p.path.Sprint(p.rel(res.Path)), len(res.Edits))
				fixed++
			}
		}

		verb := "Fixed"
		if dryRun {
			verb = "Would fix"
		}
		fmt.Fprintf(p.out, "%s %d of %d files\n", verb, fixed, len(files))
		if failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	addSelectionFlags(fixCmd)
	fixCmd.Flags().Bool("dry-run", false, "Print what would change without writing files")
}
