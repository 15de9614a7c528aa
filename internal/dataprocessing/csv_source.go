package dataprocessing

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// CSVSource reads a delimited text file. The delimiter defaults to ';'.
type CSVSource struct {
	name      string
	dataset   string
	path      string
	delimiter rune
}

// NewCSVSource creates a CSV source.
func NewCSVSource(name, dataset, path, delimiter string) *CSVSource {
	d := ';'
	if r := []rune(delimiter); len(r) == 1 {
		d = r[0]
	}
	return &CSVSource{name: name, dataset: dataset, path: path, delimiter: d}
}

func (s *CSVSource) Name() string    { return s.name }
func (s *CSVSource) Dataset() string { return s.dataset }

// Rows reads the whole file.
func (s *CSVSource) Rows(ctx context.Context) ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	return readCSV(ctx, f, s.delimiter)
}

func readCSV(ctx context.Context, r io.Reader, delimiter rune) ([][]string, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && string(bom) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		if len(rows)%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySource
	}
	return rows, nil
}
