package config

const (
	// DefaultSMICommand is the accelerator status utility probed first.
	DefaultSMICommand = "nvidia-smi"
	// DefaultSMITimeoutSeconds bounds the nvidia-smi invocation.
	DefaultSMITimeoutSeconds = 5
	// DefaultSMIPreviewLines is how many stdout lines of nvidia-smi are echoed.
	DefaultSMIPreviewLines = 5
	// DefaultPython is the interpreter used to import torch.
	DefaultPython = "python3"
	// DefaultTorchTimeoutSeconds bounds the torch probe; importing torch and
	// initialising CUDA can take tens of seconds on a cold cache.
	DefaultTorchTimeoutSeconds = 60
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		SMI: SMIConfig{
			Command:        DefaultSMICommand,
			TimeoutSeconds: DefaultSMITimeoutSeconds,
			PreviewLines:   DefaultSMIPreviewLines,
		},
		Torch: TorchConfig{
			Python:         DefaultPython,
			TimeoutSeconds: DefaultTorchTimeoutSeconds,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}
