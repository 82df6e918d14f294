package config

import (
	"fmt"
	"strings"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateSMI()...)
	errors = append(errors, c.validateTorch()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateSMI() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.SMI.Command) == "" {
		errors = append(errors, ValidationError{
			Path:    "smi.command",
			Message: "must not be empty",
		})
	}

	if c.SMI.TimeoutSeconds < 1 || c.SMI.TimeoutSeconds > 300 {
		errors = append(errors, ValidationError{
			Path:    "smi.timeout_seconds",
			Message: fmt.Sprintf("must be between 1 and 300, got %d", c.SMI.TimeoutSeconds),
		})
	}

	if c.SMI.PreviewLines < 1 || c.SMI.PreviewLines > 100 {
		errors = append(errors, ValidationError{
			Path:    "smi.preview_lines",
			Message: fmt.Sprintf("must be between 1 and 100, got %d", c.SMI.PreviewLines),
		})
	}

	return errors
}

func (c *Config) validateTorch() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Torch.Python) == "" {
		errors = append(errors, ValidationError{
			Path:    "torch.python",
			Message: "must not be empty",
		})
	}

	if c.Torch.TimeoutSeconds < 1 || c.Torch.TimeoutSeconds > 600 {
		errors = append(errors, ValidationError{
			Path:    "torch.timeout_seconds",
			Message: fmt.Sprintf("must be between 1 and 600, got %d", c.Torch.TimeoutSeconds),
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	validLevels := []string{"debug", "info", "warn", "error"}
	if contains(validLevels, c.Logging.Level) {
		return nil
	}

	return []ValidationError{{
		Path:    "logging.level",
		Message: fmt.Sprintf("must be one of %v, got '%s'", validLevels, c.Logging.Level),
	}}
}

// resetInvalid restores the default for every field named in errs and
// leaves the rest of the configuration alone.
func (c *Config) resetInvalid(errs []ValidationError) {
	def := DefaultConfig()
	for _, e := range errs {
		switch e.Path {
		case "smi.command":
			c.SMI.Command = def.SMI.Command
		case "smi.timeout_seconds":
			c.SMI.TimeoutSeconds = def.SMI.TimeoutSeconds
		case "smi.preview_lines":
			c.SMI.PreviewLines = def.SMI.PreviewLines
		case "torch.python":
			c.Torch.Python = def.Torch.Python
		case "torch.timeout_seconds":
			c.Torch.TimeoutSeconds = def.Torch.TimeoutSeconds
		case "logging.level":
			c.Logging.Level = def.Logging.Level
		}
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
