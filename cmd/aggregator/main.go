package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"eurometrics/internal/aggregate"
	"eurometrics/internal/app"
	"eurometrics/internal/metrics"
	"eurometrics/internal/model"
)

var errDegraded = errors.New("aggregation run degraded")

type runOptions struct {
	configPath      string
	dbPath          string
	metrics         string
	method          string
	minContributors int
	workers         int
	groupsOnly      bool
	textfile        string
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "aggregator",
		Short:         "Compute Europe and country-group aggregates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newRunCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "aggregator run failed:", err)
		os.Exit(1)
	}
}

func newRunCommand() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Recompute aggregates for the selected metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAggregator(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: ./.eurometrics.yaml)")
	flags.StringVar(&opts.dbPath, "db", "", "sqlite database path (overrides config)")
	flags.StringVar(&opts.metrics, "metrics", "", "comma-separated metric names (empty = all)")
	flags.StringVar(&opts.method, "method", "", "force an aggregation method for every metric")
	flags.IntVar(&opts.minContributors, "min-contributors", 0, "force the simple-sum contributor minimum (0 = configured policy)")
	flags.IntVar(&opts.workers, "workers", 0, "parallel metrics (0 = configured)")
	flags.BoolVar(&opts.groupsOnly, "groups-only", false, "recompute country groups for metrics that already have a Europe aggregate")
	flags.StringVar(&opts.textfile, "metrics-textfile", "", "write prometheus metrics to this file (overrides config)")
	return cmd
}

func runAggregator(ctx context.Context, out io.Writer, opts runOptions) error {
	env, err := app.Bootstrap(opts.configPath, opts.dbPath)
	if err != nil {
		return err
	}
	defer env.Close()

	registry := prometheus.NewRegistry()
	engine := aggregate.NewEngine(env.Store, env.Countries,
		aggregate.WithConfig(env.Config.Aggregation.Engine()),
		aggregate.WithGroups(env.Groups),
		aggregate.WithCatalog(env.Catalog),
		aggregate.WithLogger(env.Logger),
		aggregate.WithMetrics(metrics.NewRecorder(registry)),
	)
	callOpts := aggregate.Options{
		Method:          model.Method(strings.TrimSpace(opts.method)),
		MinContributors: opts.minContributors,
	}

	var reports []aggregate.MetricReport
	if opts.groupsOnly {
		all, err := engine.CalculateAllRegionalAggregatesForAllMetrics(ctx, callOpts)
		reports = groupReports(all, err)
	} else {
		workers := opts.workers
		if workers <= 0 {
			workers = env.Config.Aggregation.Workers
		}
		report, err := aggregate.NewRunner(engine, workers, env.Logger).Run(ctx, app.ParseList(opts.metrics), callOpts)
		if err != nil {
			return err
		}
		reports = report.Metrics
		fmt.Fprintf(out, "aggregator run %s\n", report.RunID)
	}

	fmt.Fprintln(out, renderSummary(reports))

	textfile := opts.textfile
	if textfile == "" {
		textfile = env.Config.Metrics.TextfilePath
	}
	if err := metrics.WriteTextfile(textfile, registry); err != nil {
		fmt.Fprintln(os.Stderr, "failed to write metrics textfile:", err)
	}

	stored, failed := 0, 0
	for _, report := range reports {
		for _, result := range report.Results {
			stored += result.Stored()
		}
		if report.Failed() {
			failed++
			for _, err := range report.Errors {
				fmt.Fprintf(os.Stderr, "metric %s: %v\n", report.Metric, err)
			}
		}
	}
	fmt.Fprintf(out, "aggregator run complete (metrics=%d stored=%s failed=%d)\n",
		len(reports), humanize.Comma(int64(stored)), failed,
	)
	if failed > 0 {
		return errDegraded
	}
	return nil
}

func groupReports(all map[string]map[string]aggregate.Result, err error) []aggregate.MetricReport {
	names := make([]string, 0, len(all))
	for metric := range all {
		names = append(names, metric)
	}
	sort.Strings(names)

	reports := make([]aggregate.MetricReport, 0, len(names))
	for _, metric := range names {
		report := aggregate.MetricReport{Metric: metric}
		keys := make([]string, 0, len(all[metric]))
		for key := range all[metric] {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			report.Results = append(report.Results, all[metric][key])
		}
		reports = append(reports, report)
	}
	if err != nil {
		reports = append(reports, aggregate.MetricReport{Metric: "(groups)", Errors: []error{err}})
	}
	return reports
}

func renderSummary(reports []aggregate.MetricReport) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.AppendHeader(table.Row{"Metric", "Target", "Method", "Published", "Extrapolated", "Skipped", "Failures", "Latest"})

	rows := 0
	for _, report := range reports {
		for _, result := range report.Results {
			latest := "-"
			if result.Latest != nil {
				latest = fmt.Sprintf("%s (%d)", humanize.Commaf(result.Latest.Value), result.Latest.Year)
			}
			tbl.AppendRow(table.Row{
				result.Metric,
				result.Target,
				string(result.Method),
				len(result.Published),
				len(result.Extrapolated),
				len(result.Skipped),
				len(result.Failures),
				latest,
			})
			rows++
		}
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d aggregates", rows)})
	return tbl.Render()
}
