package config

// Config represents the complete gpucheck configuration
type Config struct {
	SMI     SMIConfig     `yaml:"smi"`
	NVML    NVMLConfig    `yaml:"nvml"`
	Torch   TorchConfig   `yaml:"torch"`
	Logging LoggingConfig `yaml:"logging"`
}

// SMIConfig configures the nvidia-smi hardware probe
type SMIConfig struct {
	Command        string `yaml:"command"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PreviewLines   int    `yaml:"preview_lines"`
}

// NVMLConfig configures the NVML driver probe. Enabled is a pointer so an
// absent key can be told apart from an explicit false.
type NVMLConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// TorchConfig configures the PyTorch library probe
type TorchConfig struct {
	Python         string `yaml:"python"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// NVMLEnabled reports whether the NVML driver probe should run.
func (c Config) NVMLEnabled() bool {
	return c.NVML.Enabled == nil || *c.NVML.Enabled
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}
