// Package session keeps the per-browser state of the dashboard: whether the
// access gate was passed, the last aggregation request, and the cancel func
// of the request currently in flight so a newer one can supersede it.
package session
