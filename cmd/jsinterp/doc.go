// Package main is the jsinterp command line tool.
//
// It runs functions of a player script through the interpreter and prints
// the results as JSON on stdout. Logs go to stderr.
//
// Usage:
//
//	# Call a function with JSON arguments
//	jsinterp call -f player.js -fn Xy -args '["abc"]'
//
//	# Evaluate an expression, optionally against a script
//	jsinterp eval -f player.js -e 'Xy("abc").length'
//
//	# Decrypt a signature, caching the spec of the cipher
//	jsinterp sig -f player.js -fn Xy -player 3a7b -s 'AOq0QJ8w...'
//
//	# Dump tokens
//	jsinterp tokens -f player.js
//
// Configuration:
//   - Environment variables (JSINTERP_*, LOG_*, CACHE_*)
//   - A TOML file given with -config, overlaying the environment
//   - -log-level and -dev override the logging settings
//
// Exit codes: 0 on success, 1 when the script faults, 2 on usage errors.
package main
