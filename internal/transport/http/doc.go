// Package http implements the HTTP handlers of the energy dashboard. Handlers
// decode and validate requests, call the service layer and render JSON.
//
// # Routes
//
//	GET  /api/session                 session state
//	POST /api/session/login           check credentials, mark the session
//	POST /api/session/logout          revoke the session
//	GET  /api/dashboard/datasets      datasets, sites, machines, key bounds
//	POST /api/dashboard/aggregate     pipeline result, display table, chart
//	POST /api/dashboard/regression    pipeline result plus fitted line
//	POST /api/dashboard/export        CSV or XLSX download of the table
//	POST /api/dashboard/reload        reload every source
//	GET  /ws                          reload notifications
//
// # Error Handling
//
// Service and pipeline errors are mapped onto APIErrors and rendered as
// RFC 7807 problems by errors.ErrorHandler:
//
//	unknown dataset          404 not-found
//	invalid request          400 validation
//	superseded request       409 conflict
//	not enough data          422 regression/not-enough-data
//	source failure           502 data/source-failed
//	no snapshot loaded       503 service-unavailable
package http
