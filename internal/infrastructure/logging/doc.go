// Package logging builds the zap logger of the command line tool from its
// configuration.
//
// Production mode writes JSON lines, development mode colored console
// output. Logs go to the writer given to New, stderr for the CLI, so that
// results on stdout stay machine readable.
//
//	log, err := logging.New(cfg.Logging, os.Stderr)
//	interp, err := jsinterp.New(src, jsinterp.WithLogger(log.Component("interp")))
package logging
