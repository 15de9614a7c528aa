// Package dataprocessing ingests the energy source tables.
//
// A Source yields raw rows (CSV files, XLSX workbooks including GRDF
// exports, Google Sheets ranges). The Normalizer finds the header row by
// matching known column aliases, parses dates and measures, resolves the
// site through the alias and code lookups, applies the year whitelist and
// machine exclusions, and derives the calendar of every record. Rejected
// rows are counted per reason in a domain.LoadReport rather than failing
// the load.
//
// The Loader reads all sources concurrently and groups their records into
// immutable Datasets held by a Snapshot:
//
//	loader := dataprocessing.NewLoader(sources, normalizer, 4, logger, nil)
//	snap, err := loader.Load(ctx)
//	ds, err := snap.Dataset("energie")
package dataprocessing
