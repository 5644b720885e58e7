// Package config handles configuration loading for atlast-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from ATLAST_CONFIG environment variable
//  2. ./config.yaml (current directory)
//  3. ~/.config/atlast/gateway.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	generator:
//	  openai:
//	    api_key: "${OPENAI_API_KEY}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	buffer:
//	  retry_after: "2s"
//	sessions:
//	  idle_timeout: "30m"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"   # API and event stream
//
// Database:
//
//	database:
//	  path: "/var/lib/atlast/gateway.db"
//
// Riddle buffer:
//
//	buffer:
//	  target_depth: 3
//	  retry_after: "2s"
//	  max_concurrent_refills: 2
//
// Generator:
//
//	generator:
//	  mode: "phased"       # phased, openai
//	  phases: 3
//	  phase_delay: "1s"
//	  openai:
//	    base_url: "https://api.openai.com/v1"
//	    api_key: "${OPENAI_API_KEY}"
//	    model: "gpt-4o-mini"
//	    timeout: "30s"
//
// Sessions:
//
//	sessions:
//	  idle_timeout: "30m"
//
// Tailscale:
//
//	tailscale:
//	  enabled: false
//	  hostname: "atlast-gateway"
//	  auth_key: "${TS_AUTHKEY}"
//	  funnel: false
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - Listen address presence (unless Tailscale serving is enabled)
//   - Database path presence
//   - Duration format validity
//   - Generator mode and OpenAI credentials when mode is "openai"
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load("/etc/atlast/gateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
