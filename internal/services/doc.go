// Package services implements the business logic layer of the dashboard.
// It sits between the HTTP handlers and the pipeline packages so that
// request handling stays thin and testable.
//
// # Available Services
//
//	- DashboardService: owns the data snapshot and runs aggregation,
//	  regression, export and reload requests
//	- AccessService: checks the dashboard credential pair
//	- HealthService: liveness, readiness and version reporting
//
// # Error Handling
//
// Services return sentinel errors (ErrSnapshotUnavailable,
// ErrReloadInProgress, ...) or wrap the pipeline errors of the analytics and
// dataprocessing packages. Handlers translate them into problem responses.
package services
