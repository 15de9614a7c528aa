// Package config provides configuration management for energydash.
//
// # Configuration Sources
//
// Values are layered in increasing order of precedence:
//
//	1. Default() values
//	2. A YAML file (ENERGYDASH_CONFIG, config.yaml or configs/config.yaml)
//	3. Environment variables prefixed with ENERGYDASH_
//
// Environment variable names follow the struct nesting:
//
//	ENERGYDASH_SERVER_PORT=8080
//	ENERGYDASH_PIPELINE_WEEK_POLICY=calendar
//	ENERGYDASH_SITES_CODES=GI153881:PTWE89,GI087131:PTWE35
//	ENERGYDASH_KAFKA_BROKERS=localhost:9092
//
// Sources can only be declared in the YAML file:
//
//	sources:
//	  - name: global
//	    dataset: global
//	    kind: csv
//	    path: DashboardGLOBAL.csv
//	  - name: grdf
//	    dataset: grdf
//	    kind: grdf
//	    path: GRDF.xlsx
//
// Relative paths are anchored on the directory of the config file, or on
// the executable directory when no file is used. Source paths are anchored
// on the data directory.
//
// # Access Gate
//
// auth.settings_file may point at a separate YAML file holding
// auth.username and auth.password so the credential pair stays out of the
// main config.
package config
