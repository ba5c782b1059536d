// Package config loads tagstream configuration from files and the
// environment.
//
// Precedence, lowest first: Default, the config file (YAML, TOML or JSON by
// extension), then TAGSTREAM_* environment variables.
//
//	cfg, err := config.Resolve("")            // default path if present
//	if err != nil {
//	    return err
//	}
//	p := cfg.NewProcessor()
//
// Example YAML:
//
//	display:
//	  show_thinking: false
//	  show_tools: true
//	tags:
//	  scratchpad: thinking
//	events:
//	  always_surface: [error, completion_result]
//	  reset_on: [turn_start]
package config
