// Command energy-report runs one dashboard request against the configured
// sources and writes the display table as CSV or XLSX. With -records it also
// writes the normalized records, and with -influx it pushes them to InfluxDB.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"energydash/internal/config"
	"energydash/internal/dataprocessing"
	"energydash/internal/exporter"
	"energydash/internal/infrastructure"
	"energydash/internal/services"
	"energydash/pkg/contracts"
	api "energydash/pkg/contracts/api/v1"
)

type options struct {
	configFile string
	request    api.AggregateRequest
	clip       bool
	format     string
	out        string
	regression bool
	records    bool
	influx     bool
	version    bool
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		slog.Error("energy-report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("energy-report", flag.ContinueOnError)
	fs.StringVar(&o.configFile, "config", "", "config file (defaults to the usual search locations)")
	fs.StringVar(&o.request.Dataset, "dataset", "", "dataset name")
	fs.StringVar(&o.request.Metric, "metric", "gas_kwh", "metric")
	fs.StringVar(&o.request.Granularity, "granularity", "month", "year, quarter, month, week or day")
	fs.StringVar(&o.request.Site, "site", "", `site name, "Global" or "Total"`)
	fs.StringVar(&o.request.SiteMode, "site-mode", "", "single, breakdown or total")
	fs.StringVar(&o.request.Machine, "machine", "", "machine filter")
	fs.StringVar(&o.request.GroupBy, "group-by", "", "site or machine")
	fs.StringVar(&o.request.Start, "start", "", "first period (key, label or date)")
	fs.StringVar(&o.request.End, "end", "", "last period (key, label or date)")
	fs.BoolVar(&o.clip, "clip", false, "drop outliers before aggregating")
	fs.BoolVar(&o.request.PairedRatio, "paired", false, "only sum rows where both numerator and mass are positive")
	fs.StringVar(&o.format, "format", "csv", "csv or xlsx")
	fs.StringVar(&o.out, "out", "", "output file (defaults to the export directory)")
	fs.BoolVar(&o.regression, "regression", false, "print the regression of the metric on mass")
	fs.BoolVar(&o.records, "records", false, "also export the normalized records of the dataset")
	fs.BoolVar(&o.influx, "influx", false, "push the dataset records to InfluxDB")
	fs.BoolVar(&o.version, "version", false, "print the build and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.version {
		return o, nil
	}
	if o.request.Dataset == "" {
		return o, fmt.Errorf("-dataset is required")
	}
	if o.clip {
		o.request.ClipOutliers = &o.clip
	}
	return o, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintln(stdout, contracts.GetVersionInfo())
		return nil
	}
	format, err := exporter.ParseFormat(o.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(o.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := infrastructure.NewLogger(cfg.Logging, os.Stderr)
	paths := cfg.GetPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	loader, err := dataprocessing.NewLoaderFromConfig(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	dashboard := services.NewDashboardService(loader, nil, nil, cfg.Pipeline.ClipOutliers, logger)

	start := time.Now()
	if _, err := dashboard.Reload(ctx); err != nil {
		return err
	}
	logger.Info("Sources loaded", slog.Duration("duration", time.Since(start)))

	name := strings.Join([]string{o.request.Dataset, o.request.Metric, o.request.Granularity}, "_")
	target := o.out
	if target == "" {
		target = filepath.Join(paths.ExportDir, format.Filename(name))
	}
	if err := writeTable(ctx, dashboard, o.request, format, target); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "table written to %s\n", target)

	if o.regression {
		resp, err := dashboard.Regression(ctx, nil, o.request)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s (%d points)\n", resp.Regression.Equation, resp.Regression.Points)
	}

	if !o.records && !o.influx {
		return nil
	}
	snap, err := dashboard.Snapshot()
	if err != nil {
		return err
	}
	ds, err := snap.Dataset(o.request.Dataset)
	if err != nil {
		return err
	}

	if o.records {
		csvWriter := exporter.NewCSVWriter(paths, logger)
		recordsPath := filepath.Join(paths.ExportDir, o.request.Dataset+"_records.csv")
		n, err := csvWriter.ExportRecords(recordsPath, ds.Records)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%d records written to %s\n", n, recordsPath)
	}

	if o.influx {
		influx, err := exporter.NewInfluxWriter(ctx, cfg.Influx, logger)
		if err != nil {
			return err
		}
		defer influx.Close()
		n, err := influx.Write(ctx, ds.Name, ds.Records)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%d points written to InfluxDB\n", n)
	}
	return nil
}

func writeTable(ctx context.Context, dashboard *services.DashboardService, req api.AggregateRequest, format exporter.Format, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if err := dashboard.Export(ctx, nil, req, format, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
