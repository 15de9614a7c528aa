// Package exporter writes dashboard output outside the HTTP JSON surface.
//
// CSVWriter writes display tables and raw records as semicolon separated
// files with a UTF-8 BOM so Excel opens them with the right encoding.
// WriteXLSX renders the same table as a workbook. InfluxWriter pushes
// records to an InfluxDB bucket as energy_consumption points.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(cfg.GetPaths(), logger)
//	path, err := w.ExportTable("march.csv", table)
package exporter
