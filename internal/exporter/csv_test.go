package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energydash/internal/config"
	"energydash/internal/shared/testutil"
	"energydash/pkg/contracts/domain"
)

func sampleTable() domain.DisplayTable {
	return domain.DisplayTable{
		Columns: []string{"Période", "Site", "Gaz (kWh/kg)"},
		Rows: []domain.DisplayRow{
			{Period: "January 2024", Group: "PTWE35", Value: "2.00"},
			{Period: "February 2024", Group: "PTWE42; Andrézieux", Value: "1.25"},
		},
	}
}

func setupWriter(t *testing.T) (*CSVWriter, string) {
	t.Helper()
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	return NewCSVWriter(&config.Paths{ExportDir: dir}, logger), dir
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleTable()))

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, bom))
	lines := strings.Split(strings.TrimSpace(string(out[len(bom):])), "\n")
	assert.Equal(t, []string{
		"Période;Site;Gaz (kWh/kg)",
		"January 2024;PTWE35;2.00",
		`February 2024;"PTWE42; Andrézieux";1.25`,
	}, lines)
}

func TestWriteTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, domain.DisplayTable{Columns: []string{"Période", "Site", "PE (kg)"}}))
	assert.Equal(t, string(bom)+"Période;Site;PE (kg)\n", buf.String())
}

func TestCSVWriter_ExportTable(t *testing.T) {
	w, dir := setupWriter(t)

	path, err := w.ExportTable("reports/march.csv", sampleTable())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reports", "march.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, bom))
	assert.Contains(t, string(data), "January 2024;PTWE35;2.00")
}

func TestCSVWriter_WriteCSVAppend(t *testing.T) {
	w, dir := setupWriter(t)

	require.NoError(t, w.WriteCSV("log.csv", WriteOptions{
		Headers:   []string{"a", "b"},
		Records:   [][]string{{"1", "2"}},
		BOMPrefix: true,
	}))
	require.NoError(t, w.WriteCSV("log.csv", WriteOptions{
		Headers:   []string{"a", "b"},
		Records:   [][]string{{"3", "4"}},
		Append:    true,
		BOMPrefix: true,
	}))

	data, err := os.ReadFile(filepath.Join(dir, "log.csv"))
	require.NoError(t, err)
	assert.Equal(t, string(bom)+"a;b\n1;2\n3;4\n", string(data))
}

func TestCSVWriter_ResolvePath(t *testing.T) {
	w, dir := setupWriter(t)
	abs := filepath.Join(t.TempDir(), "x.csv")

	assert.Equal(t, abs, w.resolvePath(abs))
	assert.Equal(t, filepath.Join(dir, "x.csv"), w.resolvePath("x.csv"))

	bare := NewCSVWriter(nil, nil)
	assert.Equal(t, "x.csv", bare.resolvePath("x.csv"))
}

func TestCSVWriter_ExportRecords(t *testing.T) {
	w, dir := setupWriter(t)
	records := []domain.Record{
		testutil.Rec(t, "PTWE35", "M1", "2024-01-10", 1000, 400.5, 500),
		testutil.Rec(t, "", "", "2024-01-11", 1, 1, 1),
	}

	n, err := w.ExportRecords("records.csv", records)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(filepath.Join(dir, "records.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data[len(bom):])), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(RecordHeaders, ";"), lines[0])
	assert.Equal(t, "2024-01-10;PTWE35;M1;1000.00;400.50;500.00", lines[1])
}
