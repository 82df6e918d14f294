package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"gpucheck/internal/configdir"
)

const (
	systemConfigFile = "config.yaml"
	userConfigDir    = ".gpucheck"
	userConfigFile   = "config.yaml"
)

// Environment overrides, applied after every config file.
const (
	EnvPython      = "GPUCHECK_PYTHON"
	EnvSMICommand  = "GPUCHECK_SMI_COMMAND"
	EnvSMITimeout  = "GPUCHECK_SMI_TIMEOUT"
	EnvLogLevel    = "GPUCHECK_LOG_LEVEL"
	EnvLogFile     = "GPUCHECK_LOG_FILE"
	EnvNVMLEnabled = "GPUCHECK_NVML"
)

// Load loads and merges configuration.
// Priority: defaults < system config < user config < environment
//
// A broken layer or override never discards the others: unreadable files
// and unparsable variables are skipped, and fields that fail validation
// fall back to their defaults. The returned error lists what was skipped
// and the returned Config is always usable.
func Load() (Config, error) {
	cfg := DefaultConfig()
	var problems []error

	systemPath := filepath.Join(configdir.ConfigDir(), systemConfigFile)
	if err := mergeConfigFile(&cfg, systemPath); err != nil && !os.IsNotExist(err) {
		problems = append(problems, fmt.Errorf("failed to load system config: %w", err))
	}

	if userPath := UserConfigPath(); userPath != "" {
		if err := mergeConfigFile(&cfg, userPath); err != nil && !os.IsNotExist(err) {
			problems = append(problems, fmt.Errorf("failed to load user config: %w", err))
		}
	}

	return finish(cfg, problems)
}

// LoadFrom loads configuration from a specific file path instead of the
// system and user files. Environment overrides still apply.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()
	var problems []error

	if err := mergeConfigFile(&cfg, path); err != nil {
		problems = append(problems, fmt.Errorf("failed to load config from %s: %w", path, err))
	}

	return finish(cfg, problems)
}

func finish(cfg Config, problems []error) (Config, error) {
	problems = append(problems, applyEnv(&cfg, os.LookupEnv)...)

	if validationErrors := cfg.Validate(); len(validationErrors) > 0 {
		cfg.resetInvalid(validationErrors)
		problems = append(problems, fmt.Errorf("config.validation.error: %v", formatValidationErrors(validationErrors)))
	}

	return cfg, errors.Join(problems...)
}

func mergeConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path is constructed from trusted sources
	if err != nil {
		return err
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	mergeConfig(cfg, &overlay)
	return nil
}

// mergeConfig merges non-zero values from src into dst
func mergeConfig(dst, src *Config) {
	if src.SMI.Command != "" {
		dst.SMI.Command = src.SMI.Command
	}
	if src.SMI.TimeoutSeconds != 0 {
		dst.SMI.TimeoutSeconds = src.SMI.TimeoutSeconds
	}
	if src.SMI.PreviewLines != 0 {
		dst.SMI.PreviewLines = src.SMI.PreviewLines
	}

	if src.NVML.Enabled != nil {
		enabled := *src.NVML.Enabled
		dst.NVML.Enabled = &enabled
	}

	if src.Torch.Python != "" {
		dst.Torch.Python = src.Torch.Python
	}
	if src.Torch.TimeoutSeconds != 0 {
		dst.Torch.TimeoutSeconds = src.Torch.TimeoutSeconds
	}

	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
	if src.Logging.File != "" {
		dst.Logging.File = src.Logging.File
	}
}

// applyEnv applies every parsable override. A variable that does not parse
// leaves its field untouched and is reported.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) []error {
	var problems []error

	if v, ok := lookup(EnvPython); ok && strings.TrimSpace(v) != "" {
		cfg.Torch.Python = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvSMICommand); ok && strings.TrimSpace(v) != "" {
		cfg.SMI.Command = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvSMITimeout); ok && strings.TrimSpace(v) != "" {
		if seconds, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.SMI.TimeoutSeconds = seconds
		} else {
			problems = append(problems, fmt.Errorf("invalid %s %q: %w", EnvSMITimeout, v, err))
		}
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvLogFile); ok && strings.TrimSpace(v) != "" {
		cfg.Logging.File = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvNVMLEnabled); ok && strings.TrimSpace(v) != "" {
		if enabled, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.NVML.Enabled = &enabled
		} else {
			problems = append(problems, fmt.Errorf("invalid %s %q: %w", EnvNVMLEnabled, v, err))
		}
	}

	return problems
}

func formatValidationErrors(validationErrors []ValidationError) string {
	if len(validationErrors) == 1 {
		return validationErrors[0].Error()
	}
	result := fmt.Sprintf("%d validation errors:\n", len(validationErrors))
	for _, err := range validationErrors {
		result += "  - " + err.Error() + "\n"
	}
	return result
}

// SystemConfigPath returns the path to the system configuration file
func SystemConfigPath() string {
	return filepath.Join(configdir.ConfigDir(), systemConfigFile)
}

// UserConfigPath returns the path to the user configuration file
func UserConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, userConfigDir, userConfigFile)
}
