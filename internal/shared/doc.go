// Package shared groups helpers used across the energydash packages that do
// not belong to a single layer.
//
// The testutil subpackage is test-only: an in-memory slog handler for
// asserting on logs, record builders with derived calendars, and a small
// dashboard CSV extract for loader and end-to-end tests.
package shared
