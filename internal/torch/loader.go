package torch

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"gpucheck/internal/logging"
)

//go:embed probe.py
var probeScript string

// Loader loads a PyTorch installation.
type Loader interface {
	Load(ctx context.Context) (Library, error)
}

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// PythonLoader imports torch in a child Python interpreter and reads back a
// JSON Snapshot. Whatever interpreter the operator's workload uses is the
// one that should be pointed at here.
type PythonLoader struct {
	runner  CommandRunner
	python  string
	timeout time.Duration
	logger  *logging.Logger
}

// NewPythonLoader creates a loader for the given interpreter
func NewPythonLoader(runner CommandRunner, python string, timeout time.Duration, logger *logging.Logger) *PythonLoader {
	return &PythonLoader{
		runner:  runner,
		python:  python,
		timeout: timeout,
		logger:  logger,
	}
}

// Load runs the probe script once. It wraps ErrNotInstalled when the
// interpreter is missing or "import torch" fails; any other error means
// the probe itself broke.
func (l *PythonLoader) Load(ctx context.Context) (Library, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	l.logger.Debug("torch.load.start", "Importing torch", map[string]interface{}{
		"python": l.python,
	})

	out, err := l.runner.Output(ctx, l.python, "-c", probeScript)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("torch probe timed out after %s", l.timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			l.logger.Error("torch.load.crashed", "Probe script failed", map[string]interface{}{
				"python": l.python,
				"stderr": string(bytes.TrimSpace(exitErr.Stderr)),
			})
			return nil, fmt.Errorf("torch probe failed: %w", err)
		}
		l.logger.Warn("torch.load.no_python", "Python interpreter not usable", map[string]interface{}{
			"python": l.python,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("%w: python interpreter %q: %v", ErrNotInstalled, l.python, err)
	}

	snap, err := decodeSnapshot(out)
	if err != nil {
		return nil, err
	}

	if !snap.Installed {
		l.logger.Warn("torch.load.missing", "torch import failed", map[string]interface{}{
			"python": l.python,
			"error":  snap.Error,
		})
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, snap.Error)
	}

	if snap.CUDAErr != "" {
		l.logger.Warn("torch.cuda.error", "CUDA availability check raised", map[string]interface{}{
			"python": l.python,
			"error":  snap.CUDAErr,
		})
	}

	l.logger.Info("torch.load.ok", "torch imported", map[string]interface{}{
		"version":        snap.VersionString,
		"cuda_available": snap.Available,
		"devices":        len(snap.Devices),
	})

	return snap, nil
}

// decodeSnapshot reads the last non-empty line of stdout, so anything a
// site-customize hook prints before the probe runs is ignored.
func decodeSnapshot(out []byte) (*Snapshot, error) {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	last := bytes.TrimSpace(lines[len(lines)-1])
	if len(last) == 0 {
		return nil, errors.New("torch probe produced no output")
	}

	var snap Snapshot
	if err := json.Unmarshal(last, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse torch probe output: %w", err)
	}
	return &snap, nil
}
