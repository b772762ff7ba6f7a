package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/GriffinCanCode/cipherjs/internal/infrastructure/config"
	"github.com/GriffinCanCode/cipherjs/internal/infrastructure/logging"
	"github.com/GriffinCanCode/cipherjs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/cipherjs/pkg/jsinterp"
)

const (
	exitOK    = 0
	exitFault = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app carries what every subcommand needs
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *monitoring.Metrics

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	summary string
	run     func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"call":   {"call a function of a script", (*app).call},
	"eval":   {"evaluate an expression against a script", (*app).eval},
	"sig":    {"decrypt a signature with a player's cipher function", (*app).sig},
	"tokens": {"print the tokens of a script", (*app).tokens},
}

var commandOrder = []string{"call", "eval", "sig", "tokens"}

// usageError marks bad invocations, which exit with exitUsage
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jsinterp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "TOML file overlaying the environment configuration")
	logLevel := fs.String("log-level", "", "Log level, overrides LOG_LEVEL")
	dev := fs.Bool("dev", false, "Development logging")
	stats := fs.Bool("stats", false, "Print call metrics to stderr on exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: jsinterp [flags] <command> [command flags]")
		fmt.Fprintln(stderr, "\ncommands:")
		for _, name := range commandOrder {
			fmt.Fprintf(stderr, "  %-8s %s\n", name, commands[name].summary)
		}
		fmt.Fprintln(stderr, "\nflags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "jsinterp: unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "jsinterp: %v\n", err)
		return exitUsage
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *dev {
		cfg.Logging.Development = true
	}

	log, err := logging.New(cfg.Logging, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "jsinterp: %v\n", err)
		return exitUsage
	}
	defer log.Sync()

	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: monitoring.NewMetrics(prometheus.NewRegistry()),
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
	}
	code := a.exit(cmd.run(a, ctx, fs.Args()[1:]))

	if *stats {
		data, err := sonic.ConfigStd.MarshalIndent(a.metrics.GetSnapshot(), "", "  ")
		if err == nil {
			fmt.Fprintln(stderr, string(data))
		}
	}
	return code
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// exit reports err and maps it to an exit code
func (a *app) exit(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(a.stderr, "jsinterp: %v\n", ue)
		return exitUsage
	}
	var je *jsinterp.Error
	if errors.As(err, &je) {
		fmt.Fprintln(a.stderr, je.Pretty())
		return exitFault
	}
	fmt.Fprintf(a.stderr, "jsinterp: %v\n", err)
	return exitFault
}

// options returns the interpreter options derived from the configuration
func (a *app) options() []jsinterp.Option {
	return []jsinterp.Option{
		jsinterp.WithConfig(a.cfg.Interpreter),
		jsinterp.WithLogger(a.log.Component("interp")),
		jsinterp.WithMetrics(a.metrics),
	}
}
