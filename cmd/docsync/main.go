package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"docsync/internal/config"
	"docsync/internal/pipeline"
	"docsync/internal/storage"

	_ "github.com/tliron/commonlog/simple"
)

var (
	rootCmd = &cobra.Command{
		Use:   "docsync",
		Short: "Keep PHP @return docblocks in sync with inferred return types",
	}
	configPath string
	dbPath     string
	verbose    int
	jobs       int
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the config file (YAML or TOML)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the run history database (SQLite)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().IntVarP(&jobs, "jobs", "j", 0, "Number of documents processed in parallel")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(reflectCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig reads the config file and applies the persistent flags on top of it.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cmd.Flags().Changed("db") {
		cfg.Storage.DB = dbPath
	}
	if cmd.Flags().Changed("jobs") {
		if jobs < 1 {
			log.Fatalf("--jobs must be at least 1")
		}
		cfg.Analysis.Jobs = jobs
	}

	var logFile *string
	if cfg.Log.File != "" {
		logFile = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity+verbose, logFile)
	return cfg
}

// initRunner loads the config and indexes the project.
func initRunner(cmd *cobra.Command) (*config.Config, *pipeline.Runner) {
	cfg := loadConfig(cmd)
	runner, err := pipeline.NewRunner(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	return cfg, runner
}

// initStore opens the run history database.
func initStore(cfg *config.Config) storage.Store {
	store, err := storage.NewSQLiteStore(cfg.Storage.DB)
	if err != nil {
		log.Fatalf("Failed to open database %s: %v", cfg.Storage.DB, err)
	}
	return store
}
