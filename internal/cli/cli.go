package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/evalgraph/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
//
// Values are layered: defaults, then the --config file, then flags that
// were given explicitly.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("evalgraph", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
evalgraph - builds the evaluation dependency graph of a scene.

Usage:
  evalgraph [options] [SCENE_PATH...]

Arguments:
  SCENE_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to a YAML config file.")
	sceneFlag := flagSet.String("scene", "", "Name of the scene to build. Defaults to the first scene.")
	strictFlag := flagSet.Bool("strict", false, "Fail the build on relation invariant violations.")
	removeNodesFlag := flagSet.Bool("remove-nodes", false, "Let the pruner detach orphaned operations.")
	skipCyclesFlag := flagSet.Bool("skip-cycle-solver", false, "Do not mark cyclic relations.")
	serveFlag := flagSet.Bool("serve", false, "Keep running and rebuild on SIGHUP.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	publishURLFlag := flagSet.String("publish-url", "", "socket.io endpoint that receives rebuild notices.")
	publishNSFlag := flagSet.String("publish-namespace", "", "socket.io namespace for rebuild notices.")
	publishEventFlag := flagSet.String("publish-event", "", "Event name for rebuild notices.")
	publishInsecureFlag := flagSet.Bool("publish-insecure", false, "Skip TLS verification of the publish endpoint.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	cfg := app.Config{
		LogFormat: *logFormatFlag,
		LogLevel:  *logLevelFlag,
	}
	if *configFlag != "" {
		fc, err := app.LoadConfigFile(*configFlag)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		fc.Apply(&cfg)
		slog.Debug("Config file applied.", "path", *configFlag)
	}

	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.SceneName = *sceneFlag
		case "strict":
			cfg.Strict = *strictFlag
		case "remove-nodes":
			cfg.RemoveNodes = *removeNodesFlag
		case "skip-cycle-solver":
			cfg.SkipCycleSolver = *skipCyclesFlag
		case "serve":
			cfg.Serve = *serveFlag
		case "healthcheck-port":
			cfg.HealthcheckPort = *healthPortFlag
		case "log-format":
			cfg.LogFormat = *logFormatFlag
		case "log-level":
			cfg.LogLevel = *logLevelFlag
		case "publish-url":
			cfg.PublishURL = *publishURLFlag
		case "publish-namespace":
			cfg.PublishNamespace = *publishNSFlag
		case "publish-event":
			cfg.PublishEvent = *publishEventFlag
		case "publish-insecure":
			cfg.PublishInsecure = *publishInsecureFlag
		}
	})
	if flagSet.NArg() > 0 {
		cfg.ScenePaths = flagSet.Args()
	}
	slog.Debug("Scene paths determined.", "paths", cfg.ScenePaths)

	if len(cfg.ScenePaths) == 0 {
		slog.Debug("No scene path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
