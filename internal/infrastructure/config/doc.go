// Package config provides 12-factor configuration for cipherjs.
//
// Configuration is loaded from environment variables with sensible defaults.
// A TOML file can overlay the environment for the CLI.
//
// Configuration Sections:
//   - Interpreter: recursion, step and wall-clock budgets, pool size
//   - Logging: Log level and output format
//   - Cache: signature-spec cache location and entry lifetime
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	interp, err := jsinterp.New(src, jsinterp.WithConfig(cfg.Interpreter))
//
// Environment Variables:
//   - JSINTERP_MAX_DEPTH, JSINTERP_MAX_STEPS, JSINTERP_TIMEOUT, JSINTERP_POOL_SIZE
//   - LOG_LEVEL, LOG_DEV
//   - CACHE_ENABLED, CACHE_PATH, CACHE_TTL
//
// File format:
//
//	[interpreter]
//	max_steps = 500000
//	timeout = "2s"
//
//	[cache]
//	path = "/var/cache/cipherjs.db"
package config
