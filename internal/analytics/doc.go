// Package analytics runs the energy dashboard pipeline over an immutable
// record table: filter, optional outlier screening, group-by aggregation of
// sum and ratio metrics, an optional OLS fit of ratio on mass, and the
// presentation projections (display table and chart series).
//
// Every operation is a pure function of its inputs, so the same request
// over the same records always yields the same result.
package analytics
