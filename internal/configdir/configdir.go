package configdir

import (
	"os"
	"path/filepath"
)

const defaultConfigDir = "/etc/gpucheck"

// ConfigDir resolves the system configuration directory, honouring
// GPUCHECK_CONFIG_DIR.
func ConfigDir() string {
	if env := os.Getenv("GPUCHECK_CONFIG_DIR"); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
	}
	return defaultConfigDir
}
