package gpu

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"gpucheck/internal/logging"
)

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

// Output runs the command and waits for it or for ctx, whichever comes
// first. A driver in a bad state can leave nvidia-smi in uninterruptible
// sleep where the kill from CommandContext is not delivered, so the wait
// itself must also give up on ctx.
func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := cmd.Output()
		done <- result{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.out, r.err
	}
}

// SMIProbe is the hardware probe: it runs nvidia-smi with a bounded wait
// and classifies the result. It never fails.
type SMIProbe struct {
	runner       CommandRunner
	command      string
	timeout      time.Duration
	previewLines int
	logger       *logging.Logger
}

// NewSMIProbe creates a hardware probe using os/exec
func NewSMIProbe(command string, timeout time.Duration, previewLines int, logger *logging.Logger) *SMIProbe {
	return NewSMIProbeWithRunner(ExecRunner{}, command, timeout, previewLines, logger)
}

// NewSMIProbeWithRunner creates a hardware probe with a custom runner (for testing)
func NewSMIProbeWithRunner(runner CommandRunner, command string, timeout time.Duration, previewLines int, logger *logging.Logger) *SMIProbe {
	return &SMIProbe{
		runner:       runner,
		command:      command,
		timeout:      timeout,
		previewLines: previewLines,
		logger:       logger,
	}
}

// Run invokes the command once. There are no retries.
func (p *SMIProbe) Run(ctx context.Context) SMIResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := SMIResult{Command: p.command}

	out, err := p.runner.Output(ctx, p.command)
	switch {
	case err == nil:
		result.Status = SMIStatusOK
		result.Lines = firstLines(string(out), p.previewLines)
		p.logger.Info("gpu.smi.ok", "nvidia-smi succeeded", map[string]interface{}{
			"command": p.command,
		})

	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.Status = SMIStatusTimedOut
		result.ErrorMessage = "timed out after " + p.timeout.String()
		p.logger.Warn("gpu.smi.timeout", "nvidia-smi timed out", map[string]interface{}{
			"command": p.command,
			"timeout": p.timeout.String(),
		})

	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.Status = SMIStatusUnavailable
			result.ExitCode = exitErr.ExitCode()
		} else {
			// exec.ErrNotFound, permission denied and friends: the binary
			// never started.
			result.Status = SMIStatusNotFound
		}
		result.ErrorMessage = err.Error()
		p.logger.Info("gpu.smi.failed", "nvidia-smi did not succeed", map[string]interface{}{
			"command": p.command,
			"status":  string(result.Status),
			"error":   err.Error(),
		})
	}

	return result
}

// firstLines mirrors a plain split on "\n": empty lines are kept.
func firstLines(s string, n int) []string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}
