// Package config loads runtime configuration for the ontop client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the REST server
//	-i int      online status check interval (seconds)
//	-s int      background sync interval (seconds)
//	-f string   local store file
//	-l string   log level
//
// # JSON schema
//
// Durations accept strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:5000",
//	  "online_check_interval": "3s",
//	  "sync_interval": "5m",
//	  "local_db_path": "ontop-client.db",
//	  "request_timeout": "10s",
//	  "log_level": "info"
//	}
package config
