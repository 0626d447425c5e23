package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	postgresRepo "github.com/splitledger/splitledger/internal/adapter/repository/postgres"
	redisRepo "github.com/splitledger/splitledger/internal/adapter/repository/redis"
	"github.com/splitledger/splitledger/internal/classify"
	"github.com/splitledger/splitledger/internal/domain"
	"github.com/splitledger/splitledger/internal/infrastructure/config"
	"github.com/splitledger/splitledger/internal/infrastructure/postgres"
	"github.com/splitledger/splitledger/internal/infrastructure/redis"
	"github.com/splitledger/splitledger/internal/loader"
	"github.com/splitledger/splitledger/internal/usecase"
)

var (
	rulesPath         string
	baselineDate      string
	baselineAmount    string
	baselineDirection string
	verbose           bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "splitledger",
		Short: "Shared-expense reconciliation CLI",
		Long:  `Runs shared-expense reconciliation over a normalized transaction export without a running server.`,
	}

	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Path to a classification rules file (defaults to the built-in table)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	reconcileCmd := &cobra.Command{
		Use:   "reconcile <transactions.csv>",
		Short: "Reconcile a transaction export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.Context(), args[0])
		},
	}
	reconcileCmd.Flags().StringVar(&baselineDate, "baseline-date", "", "Baseline date (YYYY-MM-DD); enables from_baseline mode")
	reconcileCmd.Flags().StringVar(&baselineAmount, "baseline-amount", "", "Agreed balance amount at the baseline date")
	reconcileCmd.Flags().StringVar(&baselineDirection, "baseline-direction", "b_owes_a", "Who owed whom at the baseline (a_owes_b or b_owes_a)")

	exportCmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Push an archived run's review queue to the review store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), args[0])
		},
	}

	lintCmd := &cobra.Command{
		Use:   "lint",
		Short: "Validate a classification rules file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint()
		},
	}

	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(lintCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runReconcile(ctx context.Context, path string) error {
	log := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	runCfg, err := cfg.RunDefaults()
	if err != nil {
		return fmt.Errorf("reconciliation policy: %w", err)
	}

	if baselineDate != "" {
		baseline, err := parseBaseline()
		if err != nil {
			return err
		}
		runCfg.Mode = domain.FromBaseline
		runCfg.Baseline = baseline
	}

	rules, err := resolveRules()
	if err != nil {
		return err
	}

	txs, err := loader.NewCSVLoader(log).LoadFile(path)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	uc := usecase.NewReconcileUseCase(postgresRepo.NewULIDGenerator(), nil, rules, log, nil)
	result, err := uc.Run(ctx, usecase.RunInput{Config: runCfg, Transactions: txs})
	if err != nil {
		return fmt.Errorf("reconciliation: %w", err)
	}

	printResult(*result)
	return nil
}

func runExport(ctx context.Context, runID string) error {
	log := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	archive := postgresRepo.NewRunArchive(pool, postgresRepo.NewRetrier(log))
	result, err := archive.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run %s: %w", runID, err)
	}

	exportUC := usecase.NewExportUseCase(redisRepo.NewReviewStore(redisClient), log, nil)
	exported, err := exportUC.ExportReviewQueue(ctx, result)
	if err != nil {
		return fmt.Errorf("export review queue: %w", err)
	}

	fmt.Printf("Exported %d review items from run %s\n", exported, runID)
	return nil
}

func runLint() error {
	if rulesPath == "" {
		return fmt.Errorf("lint requires --rules")
	}
	rules, err := classify.LoadRules(rulesPath)
	if err != nil {
		return err
	}
	fmt.Printf("OK: %d rules\n", len(rules))
	return nil
}

func parseBaseline() (*domain.Baseline, error) {
	date, err := time.Parse("2006-01-02", baselineDate)
	if err != nil {
		return nil, fmt.Errorf("baseline date: %w", err)
	}
	amount, err := decimal.NewFromString(baselineAmount)
	if err != nil {
		return nil, fmt.Errorf("baseline amount: %w", err)
	}
	direction := domain.Direction(baselineDirection)
	if direction != domain.DirectionAOwesB && direction != domain.DirectionBOwesA {
		return nil, fmt.Errorf("unknown baseline direction %q", baselineDirection)
	}
	return &domain.Baseline{Date: date.UTC(), Amount: amount, Direction: direction}, nil
}

func resolveRules() ([]classify.Rule, error) {
	if rulesPath == "" {
		return classify.DefaultRules(), nil
	}
	rules, err := classify.LoadRules(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return rules, nil
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func printResult(result domain.RunResult) {
	fmt.Printf("Run %s (%s)\n", result.RunID, result.Mode)
	fmt.Printf("  Processed: %d  Posted: %d  Flagged: %d", result.Processed, result.Posted, result.Flagged)
	if result.SkippedByRange > 0 {
		fmt.Printf("  Skipped: %d", result.SkippedByRange)
	}
	fmt.Println()
	fmt.Printf("  %s\n", result.Statement)

	if len(result.ReviewQueue) == 0 {
		return
	}

	fmt.Printf("\n%d items need manual review:\n", len(result.ReviewQueue))
	for _, item := range result.ReviewQueue {
		amount := "?"
		if item.Amount != nil {
			amount = domain.FormatUSD(*item.Amount)
		}
		date := "????-??-??"
		if !item.Date.IsZero() {
			date = item.Date.Format("2006-01-02")
		}
		fmt.Printf("  %s  %s  %-8s  %s", date, amount, item.Payer, item.Ref)
		for _, reason := range item.Reasons {
			fmt.Printf("  [%s]", reason)
		}
		fmt.Println()
	}
}
