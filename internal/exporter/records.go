package exporter

import (
	"fmt"
	"log/slog"

	"energydash/pkg/contracts/domain"
)

// RecordHeaders are the columns of a raw record export. They match the
// ingestion headers so an export can be loaded back as a source.
var RecordHeaders = []string{"Date", "Site", "Machine", "Gaz (kWh)", "Electricité (kWh)", "PE (kg)"}

// ExportRecords streams records to filePath and returns the number written.
// Unresolved records are skipped.
func (w *CSVWriter) ExportRecords(filePath string, records []domain.Record) (int, error) {
	stream, err := w.CreateStreamWriter(filePath, RecordHeaders)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, r := range records {
		if !r.Resolved() {
			continue
		}
		if err := stream.WriteRecord(recordToCSVRow(r)); err != nil {
			stream.Close()
			return written, fmt.Errorf("failed to write record %d: %w", written, err)
		}
		written++
	}
	if err := stream.Close(); err != nil {
		return written, err
	}

	w.logger.Info("Exported records",
		slog.String("file_path", filePath),
		slog.Int("written", written),
		slog.Int("skipped", len(records)-written))
	return written, nil
}

func recordToCSVRow(r domain.Record) []string {
	return []string{
		formatDate(r.Date),
		r.Site,
		r.Machine,
		formatFloat(r.GasKWh, 2),
		formatFloat(r.ElectricityKWh, 2),
		formatFloat(r.MassKG, 2),
	}
}
