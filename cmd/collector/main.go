package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"eurometrics/internal/app"
	"eurometrics/internal/model"
	"eurometrics/internal/sources"
	"eurometrics/internal/sources/csvfile"
	"eurometrics/internal/store"
)

type runOptions struct {
	configPath string
	dbPath     string
	inputs     []string
	allowlist  string
	dryRun     bool
	verbose    bool
}

type summary struct {
	read    int
	stored  int
	skipped int
	invalid int
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "collector",
		Short:         "Load country observations into the metrics store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newRunCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "collector run failed:", err)
		os.Exit(1)
	}
}

func newRunCommand() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import observation CSV files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollector(cmd.Context(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: ./.eurometrics.yaml)")
	flags.StringVar(&opts.dbPath, "db", "", "sqlite database path (overrides config)")
	flags.StringSliceVar(&opts.inputs, "input", nil, "observation CSV file (repeatable)")
	flags.StringVar(&opts.allowlist, "allowlist", "", "path to country allowlist file (empty = no filter)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "validate input without storing")
	flags.BoolVar(&opts.verbose, "verbose", false, "print each observation")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runCollector(ctx context.Context, opts runOptions) error {
	env, err := app.Bootstrap(opts.configPath, opts.dbPath)
	if err != nil {
		return err
	}
	defer env.Close()

	var st store.Store = env.Store
	if opts.dryRun {
		st = &store.NopStore{}
	}

	var allowed sources.Allowlist
	if strings.TrimSpace(opts.allowlist) != "" {
		allowed, err = sources.LoadAllowlist(opts.allowlist)
		if err != nil {
			return err
		}
	}

	var source sources.Source = csvfile.New(opts.inputs...)
	observations, err := source.Observations(ctx)
	if err != nil {
		return err
	}

	validate := model.NewValidator()
	stats := summary{read: len(observations)}
	accepted := make([]model.Observation, 0, len(observations))
	for _, observation := range observations {
		if model.IsAggregateKey(observation.Country) {
			stats.skipped++
			if opts.verbose {
				fmt.Fprintf(os.Stderr, "skip aggregate key country=%s metric=%s year=%d\n", observation.Country, observation.MetricName, observation.Year)
			}
			continue
		}
		if !allowed.Allows(observation.Country) {
			stats.skipped++
			continue
		}
		if err := validate.Struct(observation); err != nil {
			stats.invalid++
			env.Logger.Warn("invalid observation",
				zap.String("country", observation.Country),
				zap.String("metric", observation.MetricName),
				zap.Int("year", observation.Year),
				zap.String("reason", describeValidation(err)),
			)
			continue
		}
		accepted = append(accepted, observation)
		if opts.verbose {
			fmt.Printf("%s %s %d %.2f %s\n",
				observation.Country,
				observation.MetricName,
				observation.Year,
				observation.Value,
				observation.Unit,
			)
		}
	}

	if err := st.UpsertObservations(ctx, accepted); err != nil {
		return err
	}
	stats.stored = len(accepted)

	if stats.stored > 0 && !opts.dryRun {
		fmt.Printf("collector stored observations=%d\n", stats.stored)
	}
	fmt.Printf("collector run complete (source=%s files=%d read=%d stored=%d invalid=%d)\n",
		source.Name(), len(opts.inputs), stats.read, stats.stored, stats.invalid,
	)
	if stats.skipped > 0 {
		fmt.Printf("collector run skipped=%d\n", stats.skipped)
	}
	return nil
}

func describeValidation(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
