// Package config loads runtime configuration for the authkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file, selected with the --config flag.
//  3. Environment variables (AUTHKEEPER_SERVER_URL, AUTHKEEPER_TIMEOUT,
//     AUTHKEEPER_SESSION).
//  4. Command-line flags (--server), applied by the CLI.
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "request_timeout": "10s",
//	  "session_path": "/home/me/.config/authkeeper/session.db"
//	}
package config
