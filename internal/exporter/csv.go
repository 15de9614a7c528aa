package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"energydash/internal/config"
	"energydash/pkg/contracts/domain"
)

// Delimiter is the field separator of every exported CSV file.
const Delimiter = ';'

var bom = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write(bom); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := newWriter(file)
	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTable writes table to out with a BOM, a header line and one line
// per display row.
func WriteTable(out io.Writer, table domain.DisplayTable) error {
	if _, err := out.Write(bom); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}
	writer := newWriter(out)
	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, row := range table.Rows {
		if err := writer.Write([]string{row.Period, row.Group, row.Value}); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportTable writes table to name under the export directory and returns
// the full path.
func (w *CSVWriter) ExportTable(name string, table domain.DisplayTable) (string, error) {
	rows := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		rows[i] = []string{row.Period, row.Group, row.Value}
	}
	err := w.WriteCSV(name, WriteOptions{
		Headers:   table.Columns,
		Records:   rows,
		BOMPrefix: true,
	})
	return w.resolvePath(name), err
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
}

// CreateStreamWriter creates a new streaming CSV writer
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := file.Write(bom); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := newWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{file: file, writer: writer}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// resolvePath places relative paths under the export directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil || w.paths.ExportDir == "" {
		return filePath
	}
	return filepath.Join(w.paths.ExportDir, filePath)
}

func newWriter(out io.Writer) *csv.Writer {
	writer := csv.NewWriter(out)
	writer.Comma = Delimiter
	return writer
}
