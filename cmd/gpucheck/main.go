package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gpucheck/internal/config"
	"gpucheck/internal/fsutil"
	"gpucheck/internal/gpu"
	"gpucheck/internal/logging"
	"gpucheck/internal/report"
	"gpucheck/internal/torch"
)

const version = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	savePath   string
	configPath string
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "version":
			fmt.Fprintf(stdout, "gpucheck version %s\n", version)
			return 0
		case "help", "--help", "-h":
			printUsage(stdout)
			return 0
		}
	}

	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n\n", err)
		printUsage(stderr)
		return 1
	}

	return runCheck(opts, stdout, stderr)
}

func parseArgs(args []string) (options, error) {
	var opts options
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "--save":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--save requires a file path")
			}
			i++
			opts.savePath = args[i]
		case strings.HasPrefix(arg, "--save="):
			opts.savePath = strings.TrimPrefix(arg, "--save=")
			if opts.savePath == "" {
				return opts, fmt.Errorf("--save requires a file path")
			}
		case arg == "--config":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--config requires a file path")
			}
			i++
			opts.configPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			opts.configPath = strings.TrimPrefix(arg, "--config=")
			if opts.configPath == "" {
				return opts, fmt.Errorf("--config requires a file path")
			}
		default:
			return opts, fmt.Errorf("unknown argument: %s", arg)
		}
	}
	return opts, nil
}

func runCheck(opts options, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: configuration problems, affected settings use defaults: %v\n", err)
	}

	logger := newLogger(cfg, stderr)
	defer fsutil.CloseWithError(logger.Close, nil, "log file")

	runner := gpu.ExecRunner{}
	smi := gpu.NewSMIProbe(cfg.SMI.Command, time.Duration(cfg.SMI.TimeoutSeconds)*time.Second, cfg.SMI.PreviewLines, logger)
	loader := torch.NewPythonLoader(runner, cfg.Torch.Python, time.Duration(cfg.Torch.TimeoutSeconds)*time.Second, logger)
	driver := gpu.NewDetector(logger, cfg.NVMLEnabled())

	reporter := report.NewReporter(stdout, smi, loader, logger, report.WithDriverProbe(driver))
	snap := reporter.Run(context.Background())

	if opts.savePath != "" {
		if err := report.SaveSnapshot(snap, opts.savePath, logger); err != nil {
			fmt.Fprintf(stderr, "Failed to save report: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Detailed report saved to: %s\n", opts.savePath)
	}

	return snap.Outcome.ExitCode()
}

// loadConfig reads only path when given, otherwise the system and user layers.
// Environment overrides apply either way.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func newLogger(cfg config.Config, stderr io.Writer) *logging.Logger {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logging.LevelWarn
	}

	if cfg.Logging.File != "" {
		logger, err := logging.NewFileLogger(level, cfg.Logging.File)
		if err == nil {
			return logger
		}
		fmt.Fprintf(stderr, "Warning: %v; logging to stderr\n", err)
	}

	return logging.NewWriterLogger(level, stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `gpucheck - verify that PyTorch can use the GPU in this environment

Usage:
  gpucheck                  Run hardware, driver and PyTorch probes
  gpucheck --save <path>    Also write a JSON snapshot to <path>
  gpucheck --config <path>  Read settings from <path> instead of the default files
  gpucheck version          Show version
  gpucheck help             Show this help

Exit status:
  0  CUDA usable, or PyTorch installed without usable CUDA (warning)
  1  PyTorch not installed or the probe failed

Configuration:
  %s or ~/.gpucheck/config.yaml
  Environment: %s, %s, %s, %s, %s, %s
`, config.SystemConfigPath(),
		config.EnvPython, config.EnvSMICommand, config.EnvSMITimeout,
		config.EnvLogLevel, config.EnvLogFile, config.EnvNVMLEnabled)
}
