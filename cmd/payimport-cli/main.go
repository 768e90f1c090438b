package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JorisBrandt/PayImport/app/models"
	"github.com/JorisBrandt/PayImport/app/repository"
	"github.com/JorisBrandt/PayImport/internal/pkg/database"
	"github.com/JorisBrandt/PayImport/internal/pkg/env"
	"github.com/JorisBrandt/PayImport/internal/pkg/importer"
	"github.com/JorisBrandt/PayImport/internal/pkg/mollie"
)

var (
	skipReconcile bool
	dryRun        bool
)

var rootCmd = &cobra.Command{
	Use:   "payimport",
	Short: "PayImport - import payment subscriptions from CSV files",
	Long: `PayImport imports subscriptions from delimited text files into the
payment database and keeps billing phases, gateway customers and mandates
in sync.

Example Usage:
  payimport import subscriptions.csv
  payimport import --skip-reconcile subscriptions.csv`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Run an import file through the pipeline",
	Long: `The import command decodes the given CSV file and processes every row
through the two-stage filter/action pipeline. The run log is written to
standard output, one line per event. Unusable rows are skipped with a log
line; the run continues.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(args[0])
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the PayImport version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("payimport v1.0.0")
	},
}

func init() {
	importCmd.Flags().BoolVar(&skipReconcile, "skip-reconcile", false, "Skip the run-start gateway customer reconciliation")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Decode and report the file without processing any row")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)
}

func runImport(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("import file could not be read: %w", err)
	}

	data, rowErrs, err := importer.DecodeFile(raw)
	if err != nil {
		return err
	}

	log := importer.NewRunLog(os.Stdout)
	for _, rowErr := range rowErrs {
		log.Printf("- skipping unusable %v", rowErr)
	}

	if dryRun {
		log.Printf("Dry run: %d items decoded from `%s`, nothing processed.", len(data.Items()), path)
		return nil
	}

	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	deps := importer.Deps{
		Repos: repos,
		Gateway: func(cfg *models.GatewayConfig) importer.Gateway {
			return mollie.NewClient(cfg.APIKey)
		},
	}
	if !skipReconcile {
		if cfg, err := repos.GatewayConfig.GetDefault(); err == nil && cfg.APIKey != "" {
			reconciler := mollie.NewReconciler(mollie.NewClient(cfg.APIKey), repos.Customer, repos.User)
			deps.Reconcile = reconciler.Reconcile
		}
	}

	pipeline := importer.NewPipeline(log, importer.DefaultConfig(log, deps))
	data.Process(context.Background(), pipeline)

	log.Printf("Import finished.")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
