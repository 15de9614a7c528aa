package exporter

import (
	"context"
	"fmt"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"energydash/internal/config"
	"energydash/pkg/contracts/domain"
)

// DefaultMeasurement is the InfluxDB measurement records are written to.
const DefaultMeasurement = "energy_consumption"

// influxBatch is the number of points sent per write call.
const influxBatch = 500

// PointWriter is the subset of the InfluxDB blocking write API used here.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxWriter pushes records to an InfluxDB v2 bucket.
type InfluxWriter struct {
	client      influxdb2.Client
	writer      PointWriter
	measurement string
	logger      *slog.Logger
}

// NewInfluxWriter connects to InfluxDB and verifies it is healthy.
func NewInfluxWriter(ctx context.Context, cfg config.InfluxConfig, logger *slog.Logger) (*InfluxWriter, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}

	w := NewInfluxWriterWith(client.WriteAPIBlocking(cfg.Org, cfg.Bucket), cfg.Measurement, logger)
	w.client = client
	return w, nil
}

// NewInfluxWriterWith builds a writer on an existing point writer.
func NewInfluxWriterWith(writer PointWriter, measurement string, logger *slog.Logger) *InfluxWriter {
	if measurement == "" {
		measurement = DefaultMeasurement
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InfluxWriter{
		writer:      writer,
		measurement: measurement,
		logger:      logger.With(slog.String("component", "influx_writer")),
	}
}

// Write sends one point per resolved record and returns the number written.
func (w *InfluxWriter) Write(ctx context.Context, dataset string, records []domain.Record) (int, error) {
	batch := make([]*write.Point, 0, influxBatch)
	written := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := w.writer.WritePoint(ctx, batch...); err != nil {
			return fmt.Errorf("failed to write points: %w", err)
		}
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, r := range records {
		if !r.Resolved() {
			continue
		}
		batch = append(batch, w.point(dataset, r))
		if len(batch) == influxBatch {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}

	w.logger.Info("Wrote records to InfluxDB",
		slog.String("dataset", dataset),
		slog.String("measurement", w.measurement),
		slog.Int("points", written))
	return written, nil
}

func (w *InfluxWriter) point(dataset string, r domain.Record) *write.Point {
	tags := map[string]string{
		"dataset": dataset,
		"site":    r.Site,
	}
	if r.Machine != "" {
		tags["machine"] = r.Machine
	}
	return write.NewPoint(
		w.measurement,
		tags,
		map[string]interface{}{
			"gas_kwh":         r.GasKWh,
			"electricity_kwh": r.ElectricityKWh,
			"mass_kg":         r.MassKG,
			"carbon_t":        r.CarbonT(),
		},
		r.Date,
	)
}

// Close closes the underlying client, if any.
func (w *InfluxWriter) Close() {
	if w.client != nil {
		w.client.Close()
	}
}
