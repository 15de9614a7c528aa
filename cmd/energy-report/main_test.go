package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energydash/internal/shared/testutil"
	"energydash/pkg/contracts"
)

const testConfigYAML = `
paths:
  data_dir: data
  export_dir: exports
  logs_dir: logs
logging:
  level: error
sources:
  - name: global
    dataset: global
    kind: csv
    path: global.csv
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "global.csv"), []byte(testutil.GlobalCSV), 0o644))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimLeft(testConfigYAML, "\n")), 0o644))
	return path
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(t *testing.T, o options)
	}{
		{name: "dataset required", args: []string{"-metric", "gas_kwh"}, wantErr: true},
		{
			name: "defaults",
			args: []string{"-dataset", "global"},
			check: func(t *testing.T, o options) {
				assert.Equal(t, "gas_kwh", o.request.Metric)
				assert.Equal(t, "month", o.request.Granularity)
				assert.Nil(t, o.request.ClipOutliers)
			},
		},
		{
			name: "clip flag",
			args: []string{"-dataset", "global", "-clip"},
			check: func(t *testing.T, o options) {
				require.NotNil(t, o.request.ClipOutliers)
				assert.True(t, *o.request.ClipOutliers)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := parseFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, o)
		})
	}
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-version"}, &out))
	assert.Contains(t, out.String(), "energydash "+contracts.Version)
}

func TestRunWritesTable(t *testing.T) {
	cfgPath := writeConfig(t)
	out := filepath.Join(t.TempDir(), "report.csv")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-config", cfgPath,
		"-dataset", "global",
		"-site", "Total",
		"-granularity", "year",
		"-out", out,
		"-records",
	}, &stdout)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024;Total;2600")
	assert.Contains(t, stdout.String(), "records written to")

	_, err = os.Stat(filepath.Join(filepath.Dir(cfgPath), "exports", "global_records.csv"))
	assert.NoError(t, err)
}

func TestRunUnknownDataset(t *testing.T) {
	err := run(context.Background(), []string{"-config", writeConfig(t), "-dataset", "nope"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunRejectsFormat(t *testing.T) {
	err := run(context.Background(), []string{"-dataset", "global", "-format", "pdf"}, &bytes.Buffer{})
	assert.Error(t, err)
}
