// Package config handles configuration loading for the twin client.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion. Fields left out of the file keep sensible defaults, so a
// config file is optional.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	server:
//	  base_url: "${TWIN_SERVER_URL}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	session:
//	  speak_delay: "800ms"
//	  notice_duration: "2500ms"
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  base_url: "http://localhost:8000"
//
// Session behavior:
//
//	session:
//	  default_mode: "technical"   # persona mode at session start
//	  content_type: ""            # optional retrieval filter
//	  streaming: true             # use /api/query/stream
//	  speak_delay: "800ms"
//	  notice_duration: "2500ms"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
//	cfg := config.Default()
//
// or from a file:
//
//	cfg, err := config.Load("twin.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
