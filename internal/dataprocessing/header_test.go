package dataprocessing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "energydash/internal/errors"
)

func TestDetectHeader(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		wantRow int
		wantCol map[column]int
		wantErr error
	}{
		{
			name:    "global csv",
			rows:    [][]string{{"Date", "Site", "Gaz (kWh)", "Electricité (kWh)", "PE (kg)"}},
			wantRow: 0,
			wantCol: map[column]int{colDate: 0, colSite: 1, colGas: 2, colElectricity: 3, colMass: 4},
		},
		{
			name: "grdf export with title rows",
			rows: [][]string{
				{"Export GRDF"},
				{""},
				{"N° PCE", "Date de relevé", "Energie consommée (kWh)"},
			},
			wantRow: 2,
			wantCol: map[column]int{colCode: 0, colDate: 1, colGas: 2},
		},
		{
			name:    "english aliases with bom and spacing",
			rows:    [][]string{{"\ufeffdate", "  SITE ", "machine", "gas_kwh", "electricity_kwh", "mass_kg"}},
			wantRow: 0,
			wantCol: map[column]int{colDate: 0, colSite: 1, colMachine: 2, colGas: 3, colElectricity: 4, colMass: 5},
		},
		{
			name:    "machine extract with year and month",
			rows:    [][]string{{"Année", "Mois", "Site", "Machine", "Gaz (kWh)", "PE (kg)"}},
			wantRow: 0,
			wantCol: map[column]int{colYear: 0, colMonth: 1, colSite: 2, colMachine: 3, colGas: 4, colMass: 5},
		},
		{
			name:    "no measure column",
			rows:    [][]string{{"Date", "Site"}},
			wantErr: ErrNoHeader,
		},
		{
			name:    "empty",
			wantErr: ErrEmptySource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, cols, err := detectHeader(tt.rows)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				var appErr *apierrors.AppError
				require.True(t, errors.As(err, &appErr))
				assert.Equal(t, apierrors.ErrTypeParsing, appErr.Type)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRow, row)
			assert.Equal(t, columnMap(tt.wantCol), cols)
		})
	}
}

func TestMapHeaderFirstOccurrenceWins(t *testing.T) {
	cols := mapHeader([]string{"Site", "Date", "Site"})
	assert.Equal(t, 0, cols[colSite])
	assert.Equal(t, "gas", colGas.String())
}
