package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"docsync/internal/pipeline"
	"docsync/internal/storage"
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Report methods whose @return docblock is missing or out of date",
	Long:  "Report methods whose @return docblock is missing or less precise than the inferred return type. Exits with status 1 when there are findings.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		started := time.Now()

		cfg, runner := initRunner(cmd)
		files := selectFiles(cmd, runner, args)

		results, err := runner.Check(ctx, files)
		if err != nil {
			log.Fatalf("Check failed: %v", err)
		}

		var findings int
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if findings, err = writeJSON(os.Stdout, results); err != nil {
				log.Fatalf("Failed to write JSON: %v", err)
			}
		} else {
			p := newPrinter(os.Stdout)
			findings = p.results(results)
			p.summary(len(files), findings)
		}

		if record, _ := cmd.Flags().GetBool("record"); record {
			id, err := recordRun(ctx, initStore(cfg), storage.Run{StartedAt: started, Root: runner.Root()}, results)
			if err != nil {
				log.Fatalf("Failed to record run: %v", err)
			}
			fmt.Fprintf(os.Stderr, "Recorded run #%d in %s\n", id, cfg.Storage.DB)
		}

		if findings > 0 {
			os.Exit(1)
		}
	},
}

// recordRun saves the run and closes the store before returning, since a check with
// findings exits the process without running deferred calls.
func recordRun(ctx context.Context, store storage.Store, run storage.Run, results []pipeline.FileResult) (int64, error) {
	id, err := store.SaveRun(ctx, run, pipeline.Reports(results))
	if cerr := store.Close(); err == nil {
		err = cerr
	}
	return id, err
}

func init() {
	addSelectionFlags(checkCmd)
	checkCmd.Flags().Bool("json", false, "Print diagnostics as JSON")
	checkCmd.Flags().Bool("record", false, "Record the run in the history database")
	checkCmd.Flags().String("stdin-path", "", "Read the document from stdin and check it as if it were this file")
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("changed", false, "Only process files changed against --base in git")
	cmd.Flags().String("base", "HEAD", "Git ref compared against by --changed")
}

// selectFiles resolves the files a command works on: a stdin buffer, the git changes or the
// given paths.
func selectFiles(cmd *cobra.Command, runner *pipeline.Runner, args []string) []string {
	if cmd.Flags().Lookup("stdin-path") != nil {
		if path, _ := cmd.Flags().GetString("stdin-path"); path != "" {
			abs, err := filepath.Abs(path)
			if err != nil {
				log.Fatalf("Invalid path %s: %v", path, err)
			}
			text, err := io.ReadAll(os.Stdin)
			if err != nil {
				log.Fatalf("Failed to read stdin: %v", err)
			}
			runner.Open(abs, string(text))
			return []string{abs}
		}
	}

	if changed, _ := cmd.Flags().GetBool("changed"); changed {
		if len(args) > 0 {
			log.Fatalf("--changed cannot be combined with paths")
		}
		base, _ := cmd.Flags().GetString("base")
		files, err := runner.Changed(cmd.Context(), base)
		if err != nil {
			log.Fatalf("Failed to get git changes: %v", err)
		}
		return files
	}

	files, err := runner.Files(args)
	if err != nil {
		log.Fatalf("Failed to collect files: %v", err)
	}
	return files
}
