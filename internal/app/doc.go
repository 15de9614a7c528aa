// Package app wires configuration, logging, telemetry, the data loader,
// services and HTTP routes into a runnable server, and owns its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, YAML file, ENERGYDASH_* environment)
//	2. Initialize logging and OpenTelemetry
//	3. Build the loader from the configured sources
//	4. Create the hub, event fanout (WebSocket, optional Kafka and InfluxDB),
//	   session store and services
//	5. Set up middleware and routes
//	6. Load the first snapshot and start serving
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the server drains requests, the hub closes its
// clients, the Kafka producer and InfluxDB client are closed and telemetry
// is flushed. Initialization errors are returned; the package never calls
// os.Exit.
package app
