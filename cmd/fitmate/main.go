package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"fitmate/internal/config"
	"fitmate/internal/database"
	"fitmate/internal/llm"
	"fitmate/internal/metrics"
	"fitmate/internal/planner"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fitmate",
		Short:        "Generate workout and diet plans and maintain the fitmate database",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "log every generation attempt")

	root.AddCommand(
		newWorkoutCmd(),
		newDietCmd(),
		newMigrateCmd(),
		newUsageCmd(),
		newCleanupCmd(),
	)
	return root
}

type generateFlags struct {
	goal       string
	biometrics string
	retries    int
}

func (f *generateFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.goal, "goal", "", "fitness goal, e.g. \"build muscle\"")
	cmd.Flags().StringVar(&f.biometrics, "biometrics", "", "free-text biometric description")
	cmd.Flags().IntVar(&f.retries, "retries", planner.DefaultMaxRetries, "maximum generation attempts")
}

func newGenerator(ctx context.Context) (*planner.Generator, llm.Closer, error) {
	cfg, err := config.ModelFromEnv()
	if err != nil {
		return nil, nil, err
	}
	client, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return planner.NewGenerator(client), client, nil
}

func newWorkoutCmd() *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "workout",
		Short: "Generate a 7-day workout plan and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := log.Logger.WithContext(cmd.Context())
			gen, closer, err := newGenerator(ctx)
			if err != nil {
				return err
			}
			defer closer.Close()

			out, err := gen.GenerateWorkoutPlan(ctx, f.goal, f.biometrics, f.retries)
			if err != nil {
				return err
			}
			if !out.Succeeded() {
				return fmt.Errorf("%s", out.Failure.Reason)
			}
			return printJSON(out.Plan)
		},
	}
	f.bind(cmd)
	return cmd
}

func newDietCmd() *cobra.Command {
	var (
		f     generateFlags
		prefs string
	)
	cmd := &cobra.Command{
		Use:   "diet",
		Short: "Generate a 7-day diet plan and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := log.Logger.WithContext(cmd.Context())
			gen, closer, err := newGenerator(ctx)
			if err != nil {
				return err
			}
			defer closer.Close()

			out, err := gen.GenerateDietPlan(ctx, f.goal, f.biometrics, prefs, f.retries)
			if err != nil {
				return err
			}
			if !out.Succeeded() {
				return fmt.Errorf("%s", out.Failure.Reason)
			}
			return printJSON(out.Plan)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&prefs, "preferences", "", "dietary preferences, e.g. \"vegetarian\"")
	return cmd
}

func openDB(ctx context.Context) (*database.DB, error) {
	cfg, err := config.DatabaseFromEnv()
	if err != nil {
		return nil, err
	}
	return database.NewDB(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Database schema is up to date (%s).\n", db.Driver)
			return nil
		},
	}
}

func newUsageCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show daily token usage of plan generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			usage, err := metrics.NewStore(db).GetDailyUsage(cmd.Context(), days)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-12s %10s %12s %6s %9s\n", "DATE", "PROMPT", "COMPLETION", "RUNS", "REJECTED")
			for _, u := range usage {
				fmt.Fprintf(w, "%-12s %10d %12d %6d %9d\n", u.Date, u.TotalPrompt, u.TotalCompletion, u.TotalExecution, u.Rejected)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days to report")
	return cmd
}

func newCleanupCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup-metrics",
		Short: "Remove old metric records",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			affected, err := metrics.NewStore(db).Cleanup(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed %d old metric records.\n", affected)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "keep records for the last N days")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
