package dataprocessing

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apierrors "energydash/internal/errors"
)

// SheetsSource reads a value range of a Google spreadsheet.
type SheetsSource struct {
	name          string
	dataset       string
	svc           *sheets.Service
	spreadsheetID string
	readRange     string
}

// NewSheetsSource creates a spreadsheet source.
func NewSheetsSource(name, dataset string, svc *sheets.Service, spreadsheetID, readRange string) *SheetsSource {
	return &SheetsSource{
		name:          name,
		dataset:       dataset,
		svc:           svc,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
	}
}

func (s *SheetsSource) Name() string    { return s.name }
func (s *SheetsSource) Dataset() string { return s.dataset }

// Rows fetches the range with unformatted values.
func (s *SheetsSource) Rows(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, apierrors.NewNetworkError(fmt.Sprintf("get %s!%s", s.spreadsheetID, s.readRange), err).
			WithContext("spreadsheet_id", s.spreadsheetID)
	}
	if len(resp.Values) == 0 {
		return nil, ErrEmptySource
	}

	rows := make([][]string, len(resp.Values))
	for i, vals := range resp.Values {
		row := make([]string, len(vals))
		for j, v := range vals {
			row[j] = cellString(v)
		}
		rows[i] = row
	}
	return rows, nil
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// NewSheetsService creates a read-only Sheets client from a service account
// credentials file. Extra options are appended (endpoint overrides in tests).
func NewSheetsService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*sheets.Service, error) {
	all := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	if credentialsFile != "" {
		all = append(all, option.WithCredentialsFile(credentialsFile))
	}
	all = append(all, opts...)

	svc, err := sheets.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}
