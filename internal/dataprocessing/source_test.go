package dataprocessing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"

	"energydash/internal/config"
	apierrors "energydash/internal/errors"
	"energydash/internal/shared/testutil"
)

func TestCSVSource(t *testing.T) {
	path := testutil.WriteFile(t, "global.csv", "\xef\xbb\xbf"+testutil.GlobalCSV)
	src := NewCSVSource("global", "energie", path, "")

	rows, err := src.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "Date", rows[0][0], "byte order mark stripped")
	assert.Equal(t, "PTWE42 Andrézieux", rows[3][1])
	assert.Equal(t, "global", src.Name())
	assert.Equal(t, "energie", src.Dataset())
}

func TestCSVSourceDelimiterAndErrors(t *testing.T) {
	path := testutil.WriteFile(t, "comma.csv", "date,site,gas_kwh\n2024-01-01,PTWE35,\"1,5\"\n")
	rows, err := NewCSVSource("c", "d", path, ",").Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "PTWE35", "1,5"}, rows[1])

	empty := testutil.WriteFile(t, "empty.csv", "")
	_, err = NewCSVSource("c", "d", empty, "").Rows(context.Background())
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = NewCSVSource("c", "d", filepath.Join(t.TempDir(), "missing.csv"), "").Rows(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewCSVSource("c", "d", path, ",").Rows(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func writeWorkbook(t *testing.T, sheets map[string][][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestXLSXSourceGRDF(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Export": {
			{"Relevés GRDF"},
			{"N° PCE", "Date de relevé", "Energie consommée (kWh)"},
			{"GI087131", "15/03/2024", 1200},
			{"GI153881", "16/03/2024", 800.5},
		},
	})

	rows, err := NewXLSXSource("grdf", "gaz", path, "").Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 4)

	report := newReport("grdf")
	records, err := NewNormalizer(mustNormalizerConfig(t)).Normalize(rows, &report)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "PTWE35", records[0].Site)
	assert.Equal(t, 800.5, records[1].GasKWh)
}

func TestXLSXSourceNamedSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Data": {
			{"Date", "Site", "Gaz (kWh)", "PE (kg)"},
			{"2024-01-10", "PTWE35", 10, 5},
		},
	})

	rows, err := NewXLSXSource("x", "d", path, "Data").Rows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = NewXLSXSource("x", "d", path, "Missing").Rows(context.Background())
	assert.Error(t, err)
}

func TestXLSXSourceWithoutHeader(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Notes": {{"nothing", "here"}},
	})
	_, err := NewXLSXSource("x", "d", path, "").Rows(context.Background())
	assert.ErrorIs(t, err, ErrNoHeader)

	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apierrors.ErrTypeParsing, appErr.Type)
	assert.Equal(t, path, appErr.Context["path"])
}

func TestSheetsSource(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"range":          "Global!A1:E3",
			"majorDimension": "ROWS",
			"values": [][]interface{}{
				{"Date", "Site", "Gaz (kWh)", "Electricité (kWh)", "PE (kg)"},
				{"2024-03-15", "PTWE35", 1500000, 20.5, 50},
				{"2024-03-16", "PTWE89"},
			},
		})
	}))
	defer srv.Close()

	svc, err := NewSheetsService(context.Background(), "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	src, err := NewSource(config.SourceConfig{
		Name: "sheet", Dataset: "energie", Kind: config.SourceSheets,
		SpreadsheetID: "abc123", Range: "Global!A1:E3",
	}, svc)
	require.NoError(t, err)

	rows, err := src.Rows(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.Contains(gotPath, "abc123"), gotPath)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2024-03-15", "PTWE35", "1500000", "20.5", "50"}, rows[1])
	assert.Equal(t, []string{"2024-03-16", "PTWE89"}, rows[2])
}

func TestSheetsSourceFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found."}}`))
	}))
	defer srv.Close()

	svc, err := NewSheetsService(context.Background(), "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	src := NewSheetsSource("sheet", "energie", svc, "missing", "Global!A1:E3")
	_, err = src.Rows(context.Background())
	require.Error(t, err)

	var appErr *apierrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apierrors.ErrTypeNetwork, appErr.Type)
	assert.Equal(t, "missing", appErr.Context["spreadsheet_id"])
	assert.Contains(t, err.Error(), "get missing!Global!A1:E3")
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SourceConfig
		wantErr bool
	}{
		{name: "csv", cfg: config.SourceConfig{Name: "a", Kind: config.SourceCSV, Path: "a.csv"}},
		{name: "xlsx", cfg: config.SourceConfig{Name: "b", Kind: config.SourceXLSX, Path: "b.xlsx"}},
		{name: "grdf", cfg: config.SourceConfig{Name: "c", Kind: config.SourceGRDF, Path: "c.xlsx"}},
		{name: "sheets without client", cfg: config.SourceConfig{Name: "d", Kind: config.SourceSheets}, wantErr: true},
		{name: "unknown", cfg: config.SourceConfig{Name: "e", Kind: "parquet"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewSource(tt.cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Name, src.Name())
		})
	}

	_, err := NewSources([]config.SourceConfig{{Name: "e", Kind: "parquet"}}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}
