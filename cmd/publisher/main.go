package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"eurometrics/internal/aggregate"
	"eurometrics/internal/app"
	"eurometrics/internal/chart"
	"eurometrics/internal/model"
)

type metaFile struct {
	GeneratedAt string   `json:"generated_at"`
	StartYear   int      `json:"start_year"`
	EndYear     int      `json:"end_year"`
	Metrics     []string `json:"metrics"`
}

type latestFile struct {
	GeneratedAt string                                  `json:"generated_at"`
	Metrics     map[string]map[string]chart.LatestValue `json:"metrics"`
}

type buildOptions struct {
	configPath string
	dbPath     string
	outDir     string
	metrics    string
	countries  string
	startYear  int
	endYear    int
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "publisher",
		Short:         "Write chart payloads for the site",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newBuildCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "publisher build failed:", err)
		os.Exit(1)
	}
}

func newBuildCommand() *cobra.Command {
	opts := buildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build chart JSON files from the metrics store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return build(cmd.Context(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: ./.eurometrics.yaml)")
	flags.StringVar(&opts.dbPath, "db", "", "sqlite database path (overrides config)")
	flags.StringVar(&opts.outDir, "out", "", "output directory (default: publish.out_dir)")
	flags.StringVar(&opts.metrics, "metrics", "", "comma-separated metric names (empty = every metric with a Europe series)")
	flags.StringVar(&opts.countries, "countries", "", "comma-separated country keys per chart (empty = all with data)")
	flags.IntVar(&opts.startYear, "start-year", 0, "first year (default: publish.start_year)")
	flags.IntVar(&opts.endYear, "end-year", 0, "last year (default: publish.end_year)")
	return cmd
}

func build(ctx context.Context, opts buildOptions) error {
	env, err := app.Bootstrap(opts.configPath, opts.dbPath)
	if err != nil {
		return err
	}
	defer env.Close()

	outDir := firstNonEmpty(opts.outDir, env.Config.Publish.OutDir)
	startYear := firstPositive(opts.startYear, env.Config.Publish.StartYear)
	endYear := firstPositive(opts.endYear, env.Config.Publish.EndYear)
	if err := os.MkdirAll(filepath.Join(outDir, "charts"), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	metricNames := app.ParseList(opts.metrics)
	if len(metricNames) == 0 {
		metricNames, err = env.Store.ListMetrics(ctx, model.KeyEurope)
		if err != nil {
			return fmt.Errorf("list metrics: %w", err)
		}
	}

	engine := aggregate.NewEngine(env.Store, env.Countries,
		aggregate.WithConfig(env.Config.Aggregation.Engine()),
		aggregate.WithGroups(env.Groups),
		aggregate.WithCatalog(env.Catalog),
		aggregate.WithLogger(env.Logger),
	)
	assembler := chart.NewAssembler(env.Store, env.Catalog, env.Countries, engine, env.Groups, env.Logger)

	now := time.Now().UTC().Format(time.RFC3339)
	latest := latestFile{GeneratedAt: now, Metrics: make(map[string]map[string]chart.LatestValue, len(metricNames))}
	for _, metric := range metricNames {
		payload, err := assembler.Build(ctx, metric, chart.Options{
			StartYear: startYear,
			EndYear:   endYear,
			Countries: app.ParseList(opts.countries),
		})
		if err != nil {
			return fmt.Errorf("build %s: %w", metric, err)
		}
		if err := writeJSON(filepath.Join(outDir, "charts", metric+".json"), payload); err != nil {
			return fmt.Errorf("write %s: %w", metric, err)
		}

		values, err := assembler.Latest(ctx, metric, nil, endYear)
		if err != nil {
			return fmt.Errorf("latest %s: %w", metric, err)
		}
		latest.Metrics[metric] = values
		env.Logger.Debug("chart written", zap.String("metric", metric), zap.Int("series", len(payload.Countries)))
	}

	if err := writeJSON(filepath.Join(outDir, "latest.json"), latest); err != nil {
		return fmt.Errorf("write latest.json: %w", err)
	}
	meta := metaFile{GeneratedAt: now, StartYear: startYear, EndYear: endYear, Metrics: metricNames}
	if err := writeJSON(filepath.Join(outDir, "meta.json"), meta); err != nil {
		return fmt.Errorf("write meta.json: %w", err)
	}

	fmt.Printf("publisher build complete (out=%s metrics=%d)\n", outDir, len(metricNames))
	return nil
}

func writeJSON(path string, value any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, value := range values {
		if value > 0 {
			return value
		}
	}
	return 0
}
